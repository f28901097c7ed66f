package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/floorplan-crawler/internal/api"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts the HTTP server",
		Long: `Serves the entry page and the /generate-csv and /download-csv endpoints
until SIGINT or SIGTERM, then drains in-flight requests.`,
		RunE: runServeCommand,
	}
	cmd.Flags().Int("port", 0, "override server.port")
	return cmd
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	rt, err := resolveRuntime(cmd.Context())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	logger := rt.logger

	apiServer := api.NewServer(ctx, rt.app.Service, rt.cfg, logger.Named("api"))
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", rt.cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server started", zap.Int("port", rt.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown initiated")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}
