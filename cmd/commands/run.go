package commands

// Command to run the claim loop
// Asks for interval and notifications, then claims for every account until interrupted
// Implements graceful shutdown for proper termination

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"hot-claimer/bots_monitor"
	"hot-claimer/internal/features/scheduler"
	"hot-claimer/internal/infra/config"
	logging "hot-claimer/internal/infra/log"
	"hot-claimer/internal/infra/metrics"
	"hot-claimer/internal/infra/prompt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Claim HOT for every account on a repeating schedule",
	Long: `Run the claim loop: one claim transaction per account, then wait the chosen
interval minus a random 1-8 minutes, forever. Results are optionally sent to Telegram.`,
	RunE: runLoop,
}

func runLoop(cmd *cobra.Command, args []string) error {
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
	if cfg.App.Interactive {
		schedule, err = prompt.AskSchedule(prompt.Terminal{}, schedule)
		if err != nil {
			return err
		}
	}
	if err := cfg.Validate(schedule); err != nil {
		logging.LogError("Invalid schedule", zap.Error(err))
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	bot, notifier, err := initializeBot(cfg, schedule)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup

	var metricsServer *metrics.Server
	if cfg.App.MetricsAddr != "" {
		metricsServer = metrics.NewServer(cfg.App.MetricsAddr)
		wg.Add(1)
		go func() {
			defer wg.Done()
			logging.LogInfo("Metrics server listening", zap.String("addr", cfg.App.MetricsAddr))
			if err := metricsServer.Start(); err != nil {
				logging.LogError("Metrics server failed", zap.Error(err))
			}
		}()
	}

	client := newNearClient(cfg)
	executor := newExecutor(cfg, client, notifiers(cfg, notifier))
	loop := scheduler.New(executor, creds, scheduler.Options{IntervalMinutes: schedule.IntervalMinutes})

	if bot != nil {
		chatID, _ := cfg.Telegram.ChatID()
		wg.Add(1)
		go func() {
			defer wg.Done()
			bots_monitor.RunCommandHandler(ctx, bot, chatID, loop)
		}()
	}

	logging.LogSuccess(fmt.Sprintf("Claiming for %d accounts every %s", len(creds), intervalTitle(schedule.IntervalMinutes)),
		zap.Int("accounts", len(creds)),
		zap.Int("intervalMinutes", schedule.IntervalMinutes),
		zap.Bool("notify", schedule.NotifyEnabled),
		zap.String("node", cfg.Near.NodeURL),
		zap.String("contract", cfg.Near.ContractID))

	// Run returns only once ctx is cancelled
	_ = loop.Run(ctx)
	logging.LogInfo("Shutdown signal received, stopping...")

	if metricsServer != nil {
		stopCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Stop(stopCtx); err != nil {
			logging.LogWarn("Metrics server shutdown failed", zap.Error(err))
		}
		stop()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.LogSuccess("Stopped gracefully")
	case <-time.After(10 * time.Second):
		logging.LogWarn("Timeout waiting for background tasks to stop, forcing shutdown")
	}

	return nil
}

func intervalTitle(minutes int) string {
	for _, opt := range config.IntervalOptions {
		if opt.Minutes == minutes {
			return opt.Title
		}
	}
	return fmt.Sprintf("%d minutes", minutes)
}
