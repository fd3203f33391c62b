package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"hot-claimer/internal/clients_api/near"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config - everything the claimer needs, built once at startup
type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Near     NearConfig     `mapstructure:"near"`
	App      AppConfig      `mapstructure:"app"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	UserID   string `mapstructure:"user_id"` // chat that receives claim reports
}

// NearConfig - RPC node and contract
type NearConfig struct {
	Network        string  `mapstructure:"network"`
	NodeURL        string  `mapstructure:"node_url"`
	ContractID     string  `mapstructure:"contract_id"`
	Gas            uint64  `mapstructure:"gas"`
	RequestTimeout int     `mapstructure:"request_timeout"` // seconds
	MaxRetries     int     `mapstructure:"max_retries"`
	RateLimit      float64 `mapstructure:"rate_limit"` // requests per second
}

type AppConfig struct {
	AccountsFile    string `mapstructure:"accounts_file"`
	IntervalMinutes int    `mapstructure:"interval_minutes"`
	Notify          bool   `mapstructure:"notify"`
	Interactive     bool   `mapstructure:"interactive"`
	FetchBalance    bool   `mapstructure:"fetch_balance"`
	ExplorerURL     string `mapstructure:"explorer_url"`
	LogsDir         string `mapstructure:"logs_dir"`
	MetricsAddr     string `mapstructure:"metrics_addr"`
	HistoryFile     string `mapstructure:"history_file"` // "" disables the journal
}

// IntervalOption is one of the selectable claim intervals
type IntervalOption struct {
	Title   string
	Minutes int
}

var IntervalOptions = []IntervalOption{
	{Title: "2 hours", Minutes: 2 * 60},
	{Title: "3 hours", Minutes: 3 * 60},
	{Title: "4 hours", Minutes: 4 * 60},
}

// Schedule - interval and notification choice, fixed for the run
type Schedule struct {
	IntervalMinutes int
	NotifyEnabled   bool
}

var (
	ErrInvalidInterval = errors.New("invalid claim interval")
	ErrMissingTelegram = errors.New("telegram notifications need TELEGRAM_BOT_TOKEN and TELEGRAM_USER_ID")
)

// Schedule returns the configured schedule
func (c *Config) Schedule() Schedule {
	return Schedule{IntervalMinutes: c.App.IntervalMinutes, NotifyEnabled: c.App.Notify}
}

// RequestTimeout as a duration
func (n NearConfig) Timeout() time.Duration {
	return time.Duration(n.RequestTimeout) * time.Second
}

// ChatID parses the recipient id
func (t TelegramConfig) ChatID() (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(t.UserID), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid TELEGRAM_USER_ID %q: %w", t.UserID, err)
	}
	return id, nil
}

// Validate checks a schedule against the configured credentials
func (c *Config) Validate(s Schedule) error {
	valid := false
	for _, opt := range IntervalOptions {
		if opt.Minutes == s.IntervalMinutes {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: %d minutes, choose one of %s", ErrInvalidInterval, s.IntervalMinutes, intervalChoices())
	}

	if s.NotifyEnabled {
		if c.Telegram.BotToken == "" || c.Telegram.UserID == "" {
			return ErrMissingTelegram
		}
		if _, err := c.Telegram.ChatID(); err != nil {
			return err
		}
	}
	return nil
}

func intervalChoices() string {
	parts := make([]string, len(IntervalOptions))
	for i, opt := range IntervalOptions {
		parts[i] = strconv.Itoa(opt.Minutes)
	}
	return strings.Join(parts, ", ")
}

// RegisterFlags adds the command line overrides
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Path to config.yaml (default: ./config.yaml if present)")
	flags.String("accounts", "private.txt", "Account file, one <privateKey>|<accountId> per line (env: APP_ACCOUNTS_FILE)")
	flags.Int("interval", 120, "Claim interval in minutes: 120, 180 or 240 (env: APP_INTERVAL_MINUTES)")
	flags.Bool("notify", false, "Send Telegram notifications (env: APP_NOTIFY)")
	flags.Bool("interactive", true, "Ask for interval and notifications at startup (env: APP_INTERACTIVE)")
	flags.Bool("fetch-balance", true, "Query ft_balance_of after each claim (env: APP_FETCH_BALANCE)")
	flags.String("metrics-addr", "", "Serve /metrics on this address, e.g. :9090 (env: APP_METRICS_ADDR)")
	flags.String("history-file", "data_out/claims.json", "Claim journal, empty to disable (env: APP_HISTORY_FILE)")
	flags.String("logs-dir", "logs", "Directory for app.log (env: APP_LOGS_DIR)")
	flags.String("network", "mainnet", "NEAR network: mainnet or testnet (env: NEAR_NETWORK)")
	flags.String("node-url", "", "NEAR RPC URL, defaults to the public node of the network (env: NEAR_NODE_URL)")
	flags.String("contract", "game.hot.tg", "Contract to claim from (env: NEAR_CONTRACT_ID)")
}

var flagKeys = map[string]string{
	"accounts":      "app.accounts_file",
	"interval":      "app.interval_minutes",
	"notify":        "app.notify",
	"interactive":   "app.interactive",
	"fetch-balance": "app.fetch_balance",
	"metrics-addr":  "app.metrics_addr",
	"logs-dir":      "app.logs_dir",
	"history-file":  "app.history_file",
	"network":       "near.network",
	"node-url":      "near.node_url",
	"contract":      "near.contract_id",
}

// LoadConfig merges defaults, config.yaml, .env, environment and flags (lowest to highest)
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	// .env only fills variables that are not already set
	_ = godotenv.Load(".env")

	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path := flagString(flags, "config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config.yaml: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	setupEnvAliases(v)

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func flagString(flags *pflag.FlagSet, name string) string {
	if flags == nil || flags.Lookup(name) == nil {
		return ""
	}
	s, _ := flags.GetString(name)
	return s
}

func setupEnvAliases(v *viper.Viper) {
	// Telegram
	v.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("telegram.user_id", "TELEGRAM_USER_ID")

	v.BindEnv("near.network", "NEAR_NETWORK")
	v.BindEnv("near.node_url", "NEAR_NODE_URL")
	v.BindEnv("near.contract_id", "NEAR_CONTRACT_ID")
	v.BindEnv("near.gas", "NEAR_GAS")
	v.BindEnv("near.request_timeout", "NEAR_REQUEST_TIMEOUT")
	v.BindEnv("near.max_retries", "NEAR_MAX_RETRIES")
	v.BindEnv("near.rate_limit", "NEAR_RATE_LIMIT")

	v.BindEnv("app.accounts_file", "APP_ACCOUNTS_FILE")
	v.BindEnv("app.interval_minutes", "APP_INTERVAL_MINUTES")
	v.BindEnv("app.notify", "APP_NOTIFY")
	v.BindEnv("app.interactive", "APP_INTERACTIVE")
	v.BindEnv("app.fetch_balance", "APP_FETCH_BALANCE")
	v.BindEnv("app.explorer_url", "APP_EXPLORER_URL")
	v.BindEnv("app.logs_dir", "APP_LOGS_DIR")
	v.BindEnv("app.metrics_addr", "APP_METRICS_ADDR")
	v.BindEnv("app.history_file", "APP_HISTORY_FILE")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.user_id", "")

	v.SetDefault("near.network", "mainnet")
	v.SetDefault("near.node_url", "")
	v.SetDefault("near.contract_id", "game.hot.tg")
	v.SetDefault("near.gas", uint64(30_000_000_000_000)) // 30 Tgas
	v.SetDefault("near.request_timeout", 30)
	v.SetDefault("near.max_retries", 3)
	v.SetDefault("near.rate_limit", 5.0)

	v.SetDefault("app.accounts_file", "private.txt")
	v.SetDefault("app.interval_minutes", 120)
	v.SetDefault("app.notify", false)
	v.SetDefault("app.interactive", true)
	v.SetDefault("app.fetch_balance", true)
	v.SetDefault("app.explorer_url", "")
	v.SetDefault("app.logs_dir", "logs")
	v.SetDefault("app.metrics_addr", "")
	v.SetDefault("app.history_file", "data_out/claims.json")
}

func normalize(cfg *Config) error {
	cfg.Near.Network = strings.ToLower(strings.TrimSpace(cfg.Near.Network))
	switch cfg.Near.Network {
	case "mainnet", "testnet":
	default:
		return fmt.Errorf("unknown near.network %q: expected mainnet or testnet", cfg.Near.Network)
	}

	if cfg.Near.NodeURL == "" {
		cfg.Near.NodeURL = near.NodeURLFor(cfg.Near.Network)
	}
	if cfg.App.ExplorerURL == "" {
		if cfg.Near.Network == "testnet" {
			cfg.App.ExplorerURL = "https://testnet.nearblocks.io/txns/"
		} else {
			cfg.App.ExplorerURL = "https://nearblocks.io/txns/"
		}
	}
	if cfg.Near.ContractID == "" {
		return errors.New("near.contract_id must not be empty")
	}
	if cfg.Near.RequestTimeout <= 0 {
		return fmt.Errorf("near.request_timeout must be positive, got %d", cfg.Near.RequestTimeout)
	}
	if cfg.App.AccountsFile == "" {
		return errors.New("app.accounts_file must not be empty")
	}
	return nil
}
