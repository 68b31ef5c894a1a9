package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/tally/internal/metrics"
	"github.com/Veraticus/tally/internal/model"
)

// Classifier implements service.Classifier on top of a provider Client.
// It holds only read-only configuration and is safe for concurrent use.
type Classifier struct {
	client     Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
	categories model.CategorySet
	timeout    time.Duration
}

// NewClassifier builds the provider client described by cfg and wraps it in
// a Classifier for categories.
func NewClassifier(cfg Config, categories model.CategorySet, logger *slog.Logger, m *metrics.Metrics) (*Classifier, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return NewClassifierWithClient(client, categories, cfg.Timeout, logger, m), nil
}

// NewClassifierWithClient wraps an existing Client. A non-positive timeout
// leaves the caller's deadline untouched.
func NewClassifierWithClient(client Client, categories model.CategorySet, timeout time.Duration, logger *slog.Logger, m *metrics.Metrics) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		client:     client,
		categories: categories,
		timeout:    timeout,
		logger:     logger,
		metrics:    m,
	}
}

// Categories returns the configured category set.
func (c *Classifier) Categories() model.CategorySet {
	return c.categories
}

// BuildPrompt renders the classification prompt for description.
func BuildPrompt(description string, categories model.CategorySet) string {
	return fmt.Sprintf("Classify this expense: '%s' into one of the following categories: %s.", description, categories.String())
}

// Classify asks the model for a category and validates the answer. The
// result is always a member of the category set or model.FallbackCategory.
// Provider failures are returned as ErrTransport, ErrAuth or
// ErrMalformedResponse.
func (c *Classifier) Classify(ctx context.Context, description string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := c.client.Complete(ctx, BuildPrompt(description, c.categories))
	elapsed := time.Since(start)

	if err != nil {
		if !isKnownFailure(err) {
			err = fmt.Errorf("%w: %w", ErrTransport, err)
		}
		c.metrics.ObserveClassification(metrics.OutcomeError, elapsed)
		c.logger.Warn("classification failed",
			"error", err,
			"duration", elapsed)
		return "", err
	}

	label := strings.TrimSpace(text)
	if !c.categories.Contains(label) {
		c.metrics.ObserveClassification(metrics.OutcomeFallback, elapsed)
		c.logger.Debug("unrecognized category label, using fallback",
			"label", label,
			"fallback", model.FallbackCategory)
		return model.FallbackCategory, nil
	}

	c.metrics.ObserveClassification(metrics.OutcomeMatched, elapsed)
	c.logger.Debug("expense classified",
		"category", label,
		"duration", elapsed)
	return label, nil
}
