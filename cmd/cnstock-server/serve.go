package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/cnstock/internal/app"
	"github.com/bobmcallan/cnstock/internal/common"
	"github.com/bobmcallan/cnstock/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := app.NewApp(configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}

	common.PrintBanner(a.Config, a.Logger)

	srv := server.NewServer(a)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	a.Logger.Info().
		Str("url", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)).
		Str("mcp", fmt.Sprintf("http://localhost:%d/mcp", a.Config.Server.Port)).
		Msg("Server ready")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		a.Logger.Info().Msg("Shutdown signal received")
	case err := <-errCh:
		a.Logger.Error().Err(err).Msg("HTTP server failed")
		return err
	}

	common.PrintShutdownBanner(a.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
		return err
	}

	a.Logger.Info().Msg("Server stopped")
	return nil
}
