// Package report renders monthly spending summaries.
package report

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/Veraticus/tally/internal/model"
	"github.com/wcharczuk/go-chart/v2"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no spending recorded")

// MonthlyBarChart renders one bar per month as a PNG image.
func MonthlyBarChart(months []model.MonthlySpend) ([]byte, error) {
	if len(months) == 0 {
		return nil, ErrNoData
	}

	bars := make([]chart.Value, 0, len(months))
	lo, hi := 0.0, 0.0
	for _, m := range months {
		v := m.TotalSpent.InexactFloat64()
		lo = min(lo, v)
		hi = max(hi, v)
		bars = append(bars, chart.Value{
			Label: m.Month,
			Value: v,
			Style: chart.Style{
				FillColor:   chart.ColorBlue,
				StrokeColor: chart.ColorBlue,
			},
		})
	}
	if hi == lo {
		hi = lo + 1
	}

	graph := chart.BarChart{
		Title:  "Monthly spending",
		Width:  max(400, 90*len(months)+150),
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    40,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
			FillColor: chart.ColorWhite,
		},
		BarWidth: 50,
		XAxis: chart.Style{
			FontSize:  10,
			FontColor: chart.ColorBlack,
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: lo, Max: hi * 1.1},
			ValueFormatter: func(v any) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f", f)
				}
				return ""
			},
			Style: chart.Style{
				FontSize:  10,
				FontColor: chart.ColorBlack,
			},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render monthly chart: %w", err)
	}
	return buffer.Bytes(), nil
}
