//go:build integration
// +build integration

package llm

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Veraticus/tally/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLLMIntegration(t *testing.T) {
	providers := []struct {
		provider string
		envKey   string
	}{
		{provider: "openai", envKey: "OPENAI_API_KEY"},
		{provider: "anthropic", envKey: "ANTHROPIC_API_KEY"},
	}

	set := model.MustCategorySet(model.DefaultCategories)

	for _, p := range providers {
		t.Run(p.provider, func(t *testing.T) {
			apiKey := os.Getenv(p.envKey)
			if apiKey == "" {
				t.Skipf("%s not set, skipping %s integration test", p.envKey, p.provider)
			}

			classifier, err := NewClassifier(Config{
				Provider: p.provider,
				APIKey:   apiKey,
				Timeout:  30 * time.Second,
			}, set, nil, nil)
			require.NoError(t, err)

			got, err := classifier.Classify(context.Background(), "Netflix monthly subscription")
			require.NoError(t, err)
			assert.True(t, set.IsValidLabel(got), "unexpected label %q", got)
			t.Logf("%s classified as %s", p.provider, got)
		})
	}
}
