package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/tally/internal/api"
	"github.com/Veraticus/tally/internal/auth"
	"github.com/Veraticus/tally/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Start the HTTP API. The database schema is migrated on startup.

The server stops accepting connections on SIGINT or SIGTERM and waits for
in-flight requests to finish before exiting.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireJWTSecret(); err != nil {
		return err
	}

	ctx := cmd.Context()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	ledger, store, err := initLedger(ctx, cfg, m)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if cfg.LLM.APIKey == "" {
		slog.Warn("No LLM API key configured; transaction creation will fail", "provider", cfg.LLM.Provider)
	}

	accounts := auth.NewAccounts(store, auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), slog.Default())

	server := api.NewServer(api.Options{
		Ledger:        ledger,
		Accounts:      accounts,
		Metrics:       m,
		Gatherer:      registry,
		Logger:        slog.Default(),
		CORSOrigin:    cfg.Server.CORSOrigin,
		AuthRateLimit: cfg.Server.AuthRateLimit,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Listen(cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down HTTP API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return <-errCh
}
