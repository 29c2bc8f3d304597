package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/echo-ledger/internal/api"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the import and categorization HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port, _ := cmd.Flags().GetInt("port"); port != 0 {
				cfg.Server.Port = port
			}
			return withDependencies(cmd.Context(), func(deps *Dependencies) error {
				return serve(cmd.Context(), deps)
			})
		},
	}
	cmd.Flags().Int("port", 0, "listen port; overrides SERVER_PORT")
	return cmd
}

func serve(ctx context.Context, deps *Dependencies) error {
	if deps.Config.Scheduler.VocabularyFlush != "" {
		if err := deps.Scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	router := api.NewRouter(deps.Config.Server, deps.Handlers(), deps.Logger)
	server := api.NewServer(deps.Config.Server, router)

	errCh := make(chan error, 1)
	go func() {
		deps.Logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		deps.Logger.Info("shutting down server")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		deps.Logger.Error("server shutdown failed", "error", err)
	}
	deps.Scheduler.Stop(shutdownCtx)

	if serveErr != nil {
		return fmt.Errorf("server failed: %w", serveErr)
	}
	return nil
}
