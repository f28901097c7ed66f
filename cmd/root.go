// Package cmd defines and implements the CLI commands for the floorplan-crawler executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/floorplan-crawler/internal/app"
	"github.com/JakeFAU/floorplan-crawler/internal/config"
	"github.com/JakeFAU/floorplan-crawler/internal/logging"
)

type runtimeKey struct{}

// runtime carries what every subcommand needs once config is loaded.
type runtime struct {
	cfg    config.Config
	logger *zap.Logger
	app    *app.App
}

// newApp is the application factory; tests replace it.
var newApp = app.New

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "floorplan-crawler",
		Short: "Exports Planner 5D gallery projects to CSV.",
		Long: `floorplan-crawler visits a fixed list of Planner 5D gallery pages, resolves each
page's project through the public project API and writes one CSV row per project
with its floor and room counts.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if err := applyFlagOverrides(cmd, &cfg); err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			zap.ReplaceGlobals(logger)

			appInstance, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			ctx := context.WithValue(cmd.Context(), runtimeKey{}, &runtime{cfg: cfg, logger: logger, app: appInstance})
			cmd.SetContext(ctx)
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			rt, err := resolveRuntime(cmd.Context())
			if err != nil {
				return
			}
			rt.app.Close()
			_ = rt.logger.Sync()
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML, JSON or TOML)")
	cmd.PersistentFlags().Int("max-concurrent", 0, "override crawler.max_concurrent")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("max-concurrent") {
		n, err := cmd.Flags().GetInt("max-concurrent")
		if err != nil {
			return fmt.Errorf("read --max-concurrent: %w", err)
		}
		cfg.Crawler.MaxConcurrent = n
	}
	if f := cmd.Flags().Lookup("port"); f != nil && f.Changed {
		port, err := cmd.Flags().GetInt("port")
		if err != nil {
			return fmt.Errorf("read --port: %w", err)
		}
		cfg.Server.Port = port
	}
	return cfg.Validate()
}

func resolveRuntime(ctx context.Context) (*runtime, error) {
	rt, ok := ctx.Value(runtimeKey{}).(*runtime)
	if !ok || rt == nil {
		return nil, errors.New("application services not initialized")
	}
	return rt, nil
}

// Execute runs the root command until it finishes or the process is signaled.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "floorplan-crawler: %v\n", err)
		os.Exit(1)
	}
}
