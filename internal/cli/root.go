package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/tj-smith47/qivivo-go"
	"github.com/tj-smith47/qivivo-go/internal/config"
	"github.com/tj-smith47/qivivo-go/internal/logger"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const cliContextKey contextKey = "cliContext"

// CliContext holds shared CLI context
type CliContext struct {
	Config *config.Config
	Client *qivivo.Client
	Logger *slog.Logger
}

type rootOptions struct {
	configPath string
	envFile    string
	logLevel   string
	logFormat  string
	logFile    string
}

// NewRootCommand creates the root cobra command
func NewRootCommand() *cobra.Command {
	var opts rootOptions

	rootCmd := &cobra.Command{
		Use:           "qivivo",
		Short:         "Command line client for the Qivivo thermostat API",
		Long:          `Read and control Qivivo thermostats, wireless modules and habitation settings.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey, cliCtx))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"Config file (default: ./qivivo.yaml or the user config directory)")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env",
		"Environment file loaded before the configuration")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "",
		"Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "",
		"Log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "",
		"Log file path (if specified, logs to file instead of stderr)")

	rootCmd.AddCommand(newDevicesCommand())
	rootCmd.AddCommand(newInfoCommand())
	rootCmd.AddCommand(newTemperatureCommand())
	rootCmd.AddCommand(newHumidityCommand())
	rootCmd.AddCommand(newSetTemperatureCommand())
	rootCmd.AddCommand(newCancelTemperatureCommand())
	rootCmd.AddCommand(newHabitationCommand())
	rootCmd.AddCommand(newWatchCommand())

	return rootCmd
}

// setup loads the configuration, builds the logger and the API client.
// Flags take precedence over the configuration file.
func setup(cmd *cobra.Command, opts rootOptions) (*CliContext, error) {
	if err := config.LoadDotEnv(opts.envFile); err != nil {
		return nil, err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Logging.Format = opts.logFormat
	}
	if opts.logFile != "" {
		cfg.Logging.File = opts.logFile
	}

	log, err := logger.SetupLogger(logger.Config{
		Level:   logger.ParseLevel(cfg.Logging.Level),
		LogFile: cfg.Logging.File,
		Format:  cfg.Logging.Format,
		Output:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}
	log = logger.WithCommand(log, cmd.Name())
	log.Debug("CLI started", "config", cfg.Source)

	client, err := newClient(cfg.Qivivo, log)
	if err != nil {
		return nil, err
	}

	return &CliContext{Config: cfg, Client: client, Logger: log}, nil
}

func newClient(cfg config.QivivoConfig, log *slog.Logger) (*qivivo.Client, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	opts := []qivivo.Option{
		qivivo.WithLogger(log),
		qivivo.WithLocation(loc),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, qivivo.WithBaseURL(cfg.BaseURL))
	}
	if cfg.OAuthURL != "" {
		opts = append(opts, qivivo.WithOAuthURL(cfg.OAuthURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, qivivo.WithTimeout(cfg.Timeout))
	}
	if cfg.RateLimit > 0 {
		opts = append(opts, qivivo.WithRateLimit(rate.Limit(cfg.RateLimit), cfg.RateBurst))
	}

	return qivivo.NewClient(cfg.ClientID, cfg.ClientSecret, opts...)
}

// getCliContext extracts the CLI context from the command context
func getCliContext(cmd *cobra.Command) *CliContext {
	return cmd.Context().Value(cliContextKey).(*CliContext)
}
