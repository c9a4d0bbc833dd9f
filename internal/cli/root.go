// Package cli provides the command-line interface for the desk.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"options-desk/internal/broker"
	"options-desk/internal/config"
	"options-desk/internal/logging"
	"options-desk/internal/store"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Source broker.QuoteSource
	KV     store.KVStore
}

// Execute loads configuration, builds the root command and runs it.
func Execute() {
	// The config directory must be known before cobra parses flags, so the
	// --config flag is scanned manually here.
	configDir := os.Getenv("DESK_CONFIG_DIR")
	for i, arg := range os.Args {
		if arg == "--config" && i+1 < len(os.Args) {
			configDir = os.Args[i+1]
		} else if strings.HasPrefix(arg, "--config=") {
			configDir = strings.TrimPrefix(arg, "--config=")
		}
	}
	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logCfg := logging.DefaultLogConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Console = cfg.Logging.Console
	logCfg.File = cfg.Logging.File
	logger := logging.NewLoggerWithConfig(logCfg)

	rootCmd := NewRootCmd(cfg, logger)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Pick the quote source. Live quotes need credentials; everything else
	// runs against the simulator.
	if !cfg.IsSimulated() && cfg.Credentials.Zerodha.APIKey != "" {
		app.Source = broker.NewKiteSource(broker.KiteConfig{
			APIKey:      cfg.Credentials.Zerodha.APIKey,
			AccessToken: cfg.Credentials.Zerodha.AccessToken,
		}, logger)
		logger.Debug().Msg("Kite quote source initialized")
	} else {
		simCfg := broker.DefaultSimConfig()
		simCfg.LotSize = cfg.Desk.LotSize
		app.Source = broker.NewSimSource(simCfg)
		logger.Debug().Msg("Simulated quote source initialized")
	}

	kv, err := store.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, positions will not persist")
		app.KV = store.NewMemoryStore()
	} else {
		app.KV = kv
		logger.Debug().Str("path", cfg.Storage.DBPath).Msg("SQLite store initialized")
	}

	rootCmd := &cobra.Command{
		Use:   "desk",
		Short: "Options Desk - live options payoff dashboard",
		Long: `Options Desk tracks index option positions and renders their combined
payoff curve, breakevens and risk badges in real time.

Positions update from a polling price feed; every change fans out
synchronously to the chart, summary cards and connected dashboards.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/options-desk)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newDashboardCmd(app))
	rootCmd.AddCommand(newPositionsCmd(app))
	rootCmd.AddCommand(newChainCmd(app))
	rootCmd.AddCommand(newAuthCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("Options Desk v%s\n", Version)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Desk Configuration")
	output.Printf("  Symbol:       %s\n", cfg.Desk.Symbol)
	expiry := cfg.Desk.Expiry
	if expiry == "" {
		expiry = "(next weekly)"
	}
	output.Printf("  Expiry:       %s\n", expiry)
	output.Printf("  Lot Size:     %d\n", cfg.Desk.LotSize)
	output.Printf("  Autosave:     %v\n", cfg.Desk.Autosave)
	output.Println()

	output.Bold("Feed Configuration")
	output.Printf("  Source:       %s\n", cfg.Feed.Source)
	output.Printf("  Interval:     %s\n", cfg.Feed.Interval)
	output.Printf("  Strikes:      %d\n", cfg.Feed.StrikeCount)
	output.Println()

	output.Bold("Server Configuration")
	output.Printf("  Address:      %s\n", cfg.Server.Addr)
	output.Println()

	output.Bold("Storage")
	output.Printf("  Database:     %s\n", cfg.Storage.DBPath)

	return nil
}
