package commands

// Command to print the HOT balance of every account

import (
	"context"
	"fmt"
	"text/tabwriter"

	"hot-claimer/internal/features/claim"
	logging "hot-claimer/internal/infra/log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show ft_balance_of for every account",
	RunE:  runBalance,
}

func runBalance(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logging.Sync()

	creds, err := loadAccounts(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	client := newNearClient(cfg)
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ACCOUNT\tHOT")

	failed := 0
	for _, cred := range creds {
		raw, err := client.CallFunction(ctx, cfg.Near.ContractID, claim.BalanceMethod, map[string]string{"account_id": cred.AccountID})
		if err == nil {
			var amount string
			if amount, err = claim.ParseBalance(raw); err == nil {
				fmt.Fprintf(w, "%s\t%s\n", cred.AccountID, amount)
				continue
			}
		}
		failed++
		logging.LogWarn(fmt.Sprintf("Balance lookup failed for %s", cred.AccountID), zap.Error(err))
		fmt.Fprintf(w, "%s\terror\n", cred.AccountID)
	}
	w.Flush()

	if failed > 0 {
		return fmt.Errorf("%d of %d balance lookups failed", failed, len(creds))
	}
	return nil
}
