package commands

// Shared wiring for the subcommands: config, logging, accounts, NEAR client, executor

import (
	"fmt"

	"hot-claimer/bots_monitor"
	"hot-claimer/internal/clients_api/near"
	"hot-claimer/internal/features/accounts"
	"hot-claimer/internal/features/claim"
	"hot-claimer/internal/infra/config"
	"hot-claimer/internal/infra/fs"
	logging "hot-claimer/internal/infra/log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(cmd.Flags())
	if err != nil {
		logging.LogError("Failed to load config", zap.Error(err))
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logging.Setup(cfg.App.LogsDir); err != nil {
		logging.LogWarn("File logging disabled", zap.String("dir", cfg.App.LogsDir), zap.Error(err))
	}
	return cfg, nil
}

// loadAccounts reads the account file, reporting every rejected line
func loadAccounts(cfg *config.Config) ([]accounts.Credential, error) {
	creds, bad, err := accounts.Load(cfg.App.AccountsFile)
	for _, lineErr := range bad {
		logging.LogWarn(fmt.Sprintf("Skipping %s line %d: %s", cfg.App.AccountsFile, lineErr.Line, lineErr.Reason),
			zap.String("file", cfg.App.AccountsFile),
			zap.Int("line", lineErr.Line))
	}
	if err != nil {
		logging.LogError("Failed to load accounts", zap.Error(err), zap.String("file", cfg.App.AccountsFile))
		return nil, err
	}

	logging.LogInfo("Accounts loaded",
		zap.String("file", cfg.App.AccountsFile),
		zap.Int("valid", len(creds)),
		zap.Int("rejected", len(bad)))
	return creds, nil
}

func newNearClient(cfg *config.Config) *near.Client {
	return near.NewClient(near.Options{
		NodeURL:        cfg.Near.NodeURL,
		RequestTimeout: cfg.Near.Timeout(),
		MaxRetries:     cfg.Near.MaxRetries,
		RateLimit:      cfg.Near.RateLimit,
	})
}

// connector turns a credential into a signing account on client
func connector(client *near.Client) claim.Connector {
	return func(cred accounts.Credential) (claim.ChainAccount, error) {
		account, err := client.Account(cred.AccountID, cred.PrivateKey)
		if err != nil {
			return nil, err
		}
		return account, nil
	}
}

func newExecutor(cfg *config.Config, client *near.Client, notifier claim.Notifier) *claim.Executor {
	return claim.NewExecutor(connector(client), notifier, claim.Options{
		ContractID:   cfg.Near.ContractID,
		Gas:          cfg.Near.Gas,
		FetchBalance: cfg.App.FetchBalance,
	})
}

// initializeBot authorizes the bot only when notifications are on
func initializeBot(cfg *config.Config, schedule config.Schedule) (*tgbotapi.BotAPI, *bots_monitor.ClaimNotifier, error) {
	if !schedule.NotifyEnabled {
		return nil, bots_monitor.NewClaimNotifier(nil, 0, false, cfg.App.ExplorerURL), nil
	}

	chatID, err := cfg.Telegram.ChatID()
	if err != nil {
		return nil, nil, err
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logging.LogError("Failed to initialize Telegram bot", zap.Error(err))
		return nil, nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	logging.LogSuccess("Telegram bot authorized", zap.String("username", bot.Self.UserName))

	return bot, bots_monitor.NewClaimNotifier(bot, chatID, true, cfg.App.ExplorerURL), nil
}

// notifiers pairs the Telegram notifier with the claim journal when one is configured
func notifiers(cfg *config.Config, telegram claim.Notifier) claim.Notifier {
	if cfg.App.HistoryFile == "" {
		return telegram
	}
	return claim.Notifiers{telegram, fs.NewHistoryStore(cfg.App.HistoryFile, fs.DefaultMaxEntries)}
}
