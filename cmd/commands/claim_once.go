package commands

// Command to run a single claim pass and exit

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"hot-claimer/internal/features/scheduler"
	logging "hot-claimer/internal/infra/log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var claimOnceCmd = &cobra.Command{
	Use:   "claim-once",
	Short: "Claim HOT once for every account and exit",
	Long:  `Run exactly one pass over the account file. Exits non-zero if any claim failed.`,
	RunE:  runClaimOnce,
}

func runClaimOnce(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logging.Sync()

	creds, err := loadAccounts(cfg)
	if err != nil {
		return err
	}

	schedule := cfg.Schedule()
	if err := cfg.Validate(schedule); err != nil {
		return err
	}

	_, notifier, err := initializeBot(cfg, schedule)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	executor := newExecutor(cfg, newNearClient(cfg), notifiers(cfg, notifier))
	summary := scheduler.New(executor, creds, scheduler.Options{IntervalMinutes: schedule.IntervalMinutes}).RunOnce(ctx)

	if summary.Failed > 0 {
		logging.LogWarn("Some claims failed", zap.Int("failed", summary.Failed), zap.Int("total", len(creds)))
		return fmt.Errorf("%d of %d claims failed", summary.Failed, len(creds))
	}
	return nil
}
