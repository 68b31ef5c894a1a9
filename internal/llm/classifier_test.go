package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/tally/internal/metrics"
	"github.com/Veraticus/tally/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient is a controllable stand-in for a provider.
type mockClient struct {
	err      error
	response string
	prompts  []string
	delay    time.Duration
	mu       sync.Mutex
}

func (m *mockClient) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %w", ErrTransport, ctx.Err())
		case <-time.After(m.delay):
		}
	}
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockClient) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func defaultSet() model.CategorySet {
	return model.MustCategorySet(model.DefaultCategories)
}

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("Netflix monthly subscription", defaultSet())
	assert.Equal(t,
		"Classify this expense: 'Netflix monthly subscription' into one of the following categories: "+
			"Groceries, Rent, Bills, Entertainment, Transport, Healthcare, Education, Shopping.",
		got)
}

func TestClassifier_Classify(t *testing.T) {
	tests := []struct {
		name        string
		description string
		response    string
		want        string
		categories  []string
	}{
		{name: "exact match", description: "Netflix monthly subscription", response: "Entertainment", want: "Entertainment"},
		{name: "unknown label", description: "random stuff", response: "Misc", want: model.FallbackCategory},
		{name: "whitespace padded", description: "Grocery run", response: " Groceries \n", want: "Groceries"},
		{name: "case mismatch", description: "Grocery run", response: "groceries", want: model.FallbackCategory},
		{name: "trailing punctuation", description: "Grocery run", response: "Groceries.", want: model.FallbackCategory},
		{name: "empty response", description: "Grocery run", response: "", want: model.FallbackCategory},
		{name: "explanation", description: "Bus pass", response: "The category is Transport. It is a commute.", want: model.FallbackCategory},
		{name: "fallback echoed", description: "stuff", response: "Other", want: model.FallbackCategory},
		{name: "reduced set match", description: "Power bill", response: "Bills", want: "Bills", categories: []string{"Bills"}},
		{name: "reduced set miss", description: "Cinema", response: "Entertainment", want: model.FallbackCategory, categories: []string{"Bills"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := defaultSet()
			if tt.categories != nil {
				set = model.MustCategorySet(tt.categories)
			}
			client := &mockClient{response: tt.response}
			c := NewClassifierWithClient(client, set, time.Second, nil, nil)

			got, err := c.Classify(context.Background(), tt.description)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, set.IsValidLabel(got))
			require.Equal(t, 1, client.calls())
			assert.Equal(t, BuildPrompt(tt.description, set), client.prompts[0])
		})
	}
}

func TestClassifier_PropagatesFailures(t *testing.T) {
	tests := []struct {
		clientErr error
		wantErr   error
		name      string
	}{
		{name: "transport", clientErr: fmt.Errorf("%w: connection refused", ErrTransport), wantErr: ErrTransport},
		{name: "auth", clientErr: fmt.Errorf("%w: status 401", ErrAuth), wantErr: ErrAuth},
		{name: "malformed", clientErr: fmt.Errorf("%w: no choices", ErrMalformedResponse), wantErr: ErrMalformedResponse},
		{name: "unknown error treated as transport", clientErr: errors.New("boom"), wantErr: ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifierWithClient(&mockClient{err: tt.clientErr}, defaultSet(), time.Second, nil, nil)

			got, err := c.Classify(context.Background(), "Netflix monthly subscription")
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, got)
		})
	}
}

func TestClassifier_Timeout(t *testing.T) {
	client := &mockClient{response: "Rent", delay: time.Second}
	c := NewClassifierWithClient(client, defaultSet(), 20*time.Millisecond, nil, nil)

	_, err := c.Classify(context.Background(), "Rent for March")
	require.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClassifier_CallerCancellation(t *testing.T) {
	client := &mockClient{response: "Rent", delay: time.Second}
	c := NewClassifierWithClient(client, defaultSet(), time.Minute, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Classify(ctx, "Rent for March")
	require.ErrorIs(t, err, context.Canceled)
}

func TestClassifier_RecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	matched := NewClassifierWithClient(&mockClient{response: "Rent"}, defaultSet(), time.Second, nil, m)
	fallback := NewClassifierWithClient(&mockClient{response: "???"}, defaultSet(), time.Second, nil, m)
	failing := NewClassifierWithClient(&mockClient{err: ErrAuth}, defaultSet(), time.Second, nil, m)

	_, err := matched.Classify(context.Background(), "rent")
	require.NoError(t, err)
	_, err = fallback.Classify(context.Background(), "???")
	require.NoError(t, err)
	_, err = failing.Classify(context.Background(), "rent")
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)

	outcomes := map[string]float64{}
	for _, f := range families {
		if f.GetName() != "tally_classifications_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			outcomes[metric.GetLabel()[0].GetValue()] = metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, map[string]float64{
		metrics.OutcomeMatched:  1,
		metrics.OutcomeFallback: 1,
		metrics.OutcomeError:    1,
	}, outcomes)
}

func TestClassifier_ConcurrentUse(t *testing.T) {
	client := &mockClient{response: "Shopping"}
	c := NewClassifierWithClient(client, defaultSet(), time.Second, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := c.Classify(context.Background(), fmt.Sprintf("order %d", i))
			assert.NoError(t, err)
			assert.Equal(t, "Shopping", got)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, client.calls())
}

func TestNewClassifier(t *testing.T) {
	c, err := NewClassifier(Config{Provider: "openai", Timeout: time.Second}, defaultSet(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, defaultSet().Names(), c.Categories().Names())

	// No key configured: fails as an auth error without touching the network.
	_, err = c.Classify(context.Background(), "Netflix")
	require.ErrorIs(t, err, ErrAuth)

	_, err = NewClassifier(Config{Provider: "markov"}, defaultSet(), nil, nil)
	require.Error(t, err)
}
