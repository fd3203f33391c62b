package commands

// Command to validate the account file without touching the network

import (
	"fmt"
	"text/tabwriter"

	"hot-claimer/internal/clients_api/near"
	"hot-claimer/internal/features/accounts"

	"github.com/spf13/cobra"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Validate the account file and list the accounts it contains",
	RunE:  runAccounts,
}

func runAccounts(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	creds, bad, err := accounts.Load(cfg.App.AccountsFile)
	out := cmd.OutOrStdout()

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LINE\tACCOUNT\tPUBLIC KEY")
	for _, cred := range creds {
		publicKey := "invalid key"
		if key, keyErr := near.ParseKeyPair(cred.PrivateKey); keyErr == nil {
			publicKey = key.PublicKey()
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", cred.Line, cred.AccountID, publicKey)
	}
	w.Flush()

	for _, lineErr := range bad {
		fmt.Fprintf(out, "line %d rejected: %s\n", lineErr.Line, lineErr.Reason)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d valid, %d rejected\n", len(creds), len(bad))
	return nil
}
