package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/config"
	"github.com/Veraticus/tally/internal/engine"
	"github.com/Veraticus/tally/internal/llm"
	"github.com/Veraticus/tally/internal/metrics"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
	"github.com/Veraticus/tally/internal/storage"
	"github.com/spf13/viper"
)

func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

// initStorage opens the configured backend and brings its schema up to date.
func initStorage(ctx context.Context, cfg *config.Config) (service.Storage, error) {
	store, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func newClassifier(cfg *config.Config, m *metrics.Metrics) (*llm.Classifier, error) {
	return llm.NewClassifier(llm.Config{
		Provider:  cfg.LLM.Provider,
		APIKey:    cfg.LLM.APIKey,
		Model:     cfg.LLM.Model,
		BaseURL:   cfg.LLM.BaseURL,
		Timeout:   cfg.LLM.Timeout,
		RateLimit: cfg.LLM.RateLimit,
	}, cfg.Categories, slog.Default(), m)
}

// initLedger wires storage and classification together. The caller owns the
// returned storage and must close it.
func initLedger(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*engine.Ledger, service.Storage, error) {
	store, err := initStorage(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	classifier, err := newClassifier(cfg, m)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	return engine.New(store, classifier, cfg.Categories, slog.Default()), store, nil
}

func lookupUser(ctx context.Context, store service.Storage, username string) (*model.User, error) {
	user, err := store.GetUserByUsername(ctx, username)
	if errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("no user named %q", username)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}
