package di

import (
	"fmt"

	"github.com/spf13/pflag"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/mailbox-warmup/internal/adapters/dnscheck"
	"github.com/mikey/mailbox-warmup/internal/config"
	"github.com/mikey/mailbox-warmup/internal/logging"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	ConfigFile string
	Verbose    bool
	JSONLog    bool

	// Store overrides
	StoreType  string
	SQLitePath string

	// Reply overrides
	Provider string
	Language string
	Tone     string

	// Command arguments
	UserID int64
	Limit  int

	Flags *pflag.FlagSet
	Args  []string
}

// flagBindings maps CLI flags to configuration keys
var flagBindings = map[string]string{
	"store":       "store.type",
	"sqlite-path": "store.sqlite_path",
	"provider":    "reply.provider",
	"language":    "reply.language",
	"tone":        "reply.tone",
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags(args []string) (*CLIFlags, error) {
	flags := &CLIFlags{}
	fs := pflag.NewFlagSet("warmupctl", pflag.ContinueOnError)

	fs.StringVarP(&flags.ConfigFile, "config", "c", "", "Path to config file")
	fs.BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable verbose logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")

	fs.StringVar(&flags.StoreType, "store", "sqlite", "Store type (memory, sqlite, mysql, postgres)")
	fs.StringVar(&flags.SQLitePath, "sqlite-path", "./warmup.db", "Path to the SQLite database")

	fs.StringVar(&flags.Provider, "provider", "openai", "Reply provider (openai, gemini, bedrock, none)")
	fs.StringVar(&flags.Language, "language", "en", "Reply language tag")
	fs.StringVar(&flags.Tone, "tone", "friendly", "Reply tone")

	fs.Int64Var(&flags.UserID, "user", 0, "User id for the stats command")
	fs.IntVar(&flags.Limit, "limit", 50, "Number of activities for the status command")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	flags.Flags = fs
	flags.Args = fs.Args()
	return flags, nil
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		cfg, err := loadCLIConfig(flags)
		if err != nil {
			return nil, err
		}
		if used := cfg.GetViper().ConfigFileUsed(); used != "" {
			logger.Debug("Loaded configuration from file", zap.String("file", used))
		}
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	if err := provideEngine(container); err != nil {
		return nil, err
	}

	// Register domain health checker
	if err := container.Provide(func(logger *zap.Logger) *dnscheck.Checker {
		return dnscheck.NewChecker(nil, 0, logger)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// loadCLIConfig reads the config file when given, otherwise the defaults, and
// lets explicitly set flags override both
func loadCLIConfig(flags *CLIFlags) (*config.Config, error) {
	var cfg *config.Config
	if flags.ConfigFile != "" {
		c, err := config.NewFromFile(flags.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		v := config.NewEmptyViper()
		v.Set("store.type", flags.StoreType)
		v.Set("store.sqlite_path", flags.SQLitePath)
		v.Set("reply.provider", flags.Provider)
		v.Set("reply.language", flags.Language)
		v.Set("reply.tone", flags.Tone)
		cfg = config.NewFromViper(v)
	}

	if flags.Flags != nil {
		if err := cfg.BindFlags(flags.Flags, flagBindings); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}
	return cfg, nil
}
