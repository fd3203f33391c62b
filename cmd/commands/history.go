package commands

// Command to print the most recent journaled claim attempts

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"hot-claimer/internal/infra/fs"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the most recent claim attempts from the claim journal",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of records to show, 0 for all")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.App.HistoryFile == "" {
		return errors.New("claim journal is disabled (app.history_file is empty)")
	}

	records, err := fs.NewHistoryStore(cfg.App.HistoryFile, fs.DefaultMaxEntries).Last(historyLimit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACCOUNT\tRESULT\tHOT\tTX / ERROR")
	for _, rec := range records {
		if rec.Success {
			fmt.Fprintf(w, "%s\t%s\tok\t%s\t%s\n", rec.Timestamp, rec.AccountID, rec.UserAmount, rec.TxHash)
		} else {
			fmt.Fprintf(w, "%s\t%s\tfailed\t-\t%s\n", rec.Timestamp, rec.AccountID, rec.Error)
		}
	}
	return w.Flush()
}
