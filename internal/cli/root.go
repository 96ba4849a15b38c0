package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"options-scanner/internal/config"
	"options-scanner/internal/gateway"
	"options-scanner/internal/scanner"
	"options-scanner/internal/service"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Service *service.Service
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	transport := gateway.NewPortalTransport(logger)
	resolver := gateway.NewResolver(cfg.Exchanges.DefaultStock, cfg.Exchanges.DefaultOption, cfg.Exchanges.Overrides)
	connector := gateway.NewConnector(transport, resolver, nil, gateway.Config{
		Host:           cfg.Gateway.Host,
		Port:           cfg.Gateway.Port,
		ClientID:       cfg.Gateway.ClientID,
		BatchSize:      cfg.Collection.BatchSize,
		BatchDelay:     cfg.Collection.BatchDelay,
		MaxExpirations: cfg.Collection.MaxExpirations,
	}, logger)

	sc := scanner.NewScanner(scanner.Config{
		Workers:         cfg.Scanner.Workers,
		MaxCandidates:   cfg.Scanner.MaxCandidates,
		MaxExpirations:  cfg.Scanner.MaxExpirations,
		DefaultLimit:    cfg.Scanner.DefaultLimit,
		PayoffSamples:   cfg.Scanner.PayoffSamples,
		PriceRangeRatio: cfg.Scanner.PriceRangeRatio,
	}, logger)

	app := &App{
		Config: cfg,
		Logger: logger,
		Service: service.New(connector, sc, service.Config{
			CacheEnabled: cfg.Cache.Enabled,
			CacheTTL:     cfg.Cache.TTL,
		}, logger),
	}

	rootCmd := &cobra.Command{
		Use:   "options-scanner",
		Short: "Options market scanner - chain retrieval and strategy analysis",
		Long: `Options Scanner retrieves live option chains through a local market-data
gateway and evaluates multi-leg strategies against them.

It maintains a single throttled gateway session, fetches chains in
rate-limited batches, and ranks covered call and iron condor opportunities
under user-supplied filters.

Use 'options-scanner help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/options-scanner)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newStatusCmd(app))
	rootCmd.AddCommand(newChainCmd(app))
	rootCmd.AddCommand(newEvaluateCmd(app))
	rootCmd.AddCommand(newScanCmd(app))

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
				output.Printf("Options Scanner v%s\n", Version)
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
			return output.JSON(app.Config)
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
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}
