package cli

import (
	"bytes"
	"testing"

	"github.com/Veraticus/tally/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMonthlyReport(t *testing.T) {
	out := RenderMonthlyReport("alice", []model.MonthlySpend{
		{Month: "2024-01", TotalSpent: decimal.RequireFromString("120.5")},
		{Month: "2024-02", TotalSpent: decimal.RequireFromString("1042")},
	})

	assert.Contains(t, out, "Monthly spending for alice")
	assert.Contains(t, out, "2024-01")
	assert.Contains(t, out, "120.50")
	assert.Contains(t, out, "1042.00")
	assert.Contains(t, out, "1162.50")
}

func TestRenderMonthlyReport_Empty(t *testing.T) {
	out := RenderMonthlyReport("bob", nil)
	assert.Contains(t, out, "No transactions recorded yet.")
}

func TestNewProgressBar(t *testing.T) {
	var buf bytes.Buffer
	bar := NewProgressBar(&buf, 3, "Importing")

	for range 3 {
		require.NoError(t, bar.Add(1))
	}
	assert.True(t, bar.IsFinished())
	assert.Contains(t, buf.String(), "3/3")
}

func TestFormatHelpers(t *testing.T) {
	assert.Contains(t, FormatSuccess("done"), "done")
	assert.Contains(t, FormatError("failed"), "failed")
	assert.Contains(t, FormatWarning("careful"), "careful")
}
