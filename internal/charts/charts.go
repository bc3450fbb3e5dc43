// Package charts draws dashboard panels as PNG images.
package charts

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/vicanso/go-charts/v2"

	"ratesDashboard/internal/frame"
)

// ErrNoData is returned when a frame has too few rows to draw.
var ErrNoData = errors.New("no data")

const (
	width  = 900
	height = 420

	// maxPoints caps the points per line; longer histories are thinned.
	maxPoints = 750
)

// LineChart draws every column of f as one line, sharing a single y-axis.
func LineChart(title string, f *frame.Frame) ([]byte, error) {
	if f == nil || f.Len() < 2 {
		return nil, ErrNoData
	}
	idx := sampleRows(f.Len(), maxPoints)
	dates := f.Dates()
	names := f.Names()

	labels := make([]string, len(idx))
	for i, r := range idx {
		labels[i] = dates[r].Format(dateLabel(dates))
	}

	values := make([][]float64, 0, len(names))
	first := true
	var yMin, yMax float64
	for _, n := range names {
		col, err := f.Column(n)
		if err != nil {
			return nil, err
		}
		vals := make([]float64, len(idx))
		for i, r := range idx {
			v := col.Values[r]
			vals[i] = v
			if first {
				yMin, yMax = v, v
				first = false
				continue
			}
			if v < yMin {
				yMin = v
			}
			if v > yMax {
				yMax = v
			}
		}
		values = append(values, vals)
	}
	yMin, yMax = padRange(yMin, yMax)

	seriesList := charts.NewSeriesListDataFromValues(values, charts.ChartTypeLine)
	for i := range seriesList {
		seriesList[i].Name = names[i]
	}
	painter, err := charts.Render(charts.ChartOption{SeriesList: seriesList},
		charts.TitleTextOptionFunc(title),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: labels, BoundaryGap: charts.FalseFlag(), SplitNumber: splitNumber(len(labels))}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names, Left: charts.PositionRight}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(width),
		charts.HeightOptionFunc(height),
		hideSymbols,
	)
	if err != nil {
		return nil, fmt.Errorf("render %q: %w", title, err)
	}
	return painter.Bytes()
}

// MoveChart draws row-over-row changes as grouped bars in basis points, one
// group per date and one bar per column.
func MoveChart(title string, f *frame.Frame) ([]byte, error) {
	if f == nil || f.Empty() {
		return nil, ErrNoData
	}
	dates := f.Dates()
	names := f.Names()

	labels := make([]string, len(dates))
	for i, d := range dates {
		labels[i] = d.Format("Jan 02")
	}
	values := make([][]float64, 0, len(names))
	for _, n := range names {
		col, err := f.Column(n)
		if err != nil {
			return nil, err
		}
		bps := make([]float64, len(col.Values))
		for i, v := range col.Values {
			bps[i] = math.Round(v*1000) / 10
		}
		values = append(values, bps)
	}

	seriesList := charts.NewSeriesListDataFromValues(values, charts.ChartTypeBar)
	for i := range seriesList {
		seriesList[i].Name = names[i]
	}
	painter, err := charts.Render(charts.ChartOption{SeriesList: seriesList},
		charts.TitleTextOptionFunc(title),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: labels, SplitNumber: splitNumber(len(labels))}),
		charts.YAxisOptionFunc(charts.YAxisOption{DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names, Left: charts.PositionRight}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(width),
		charts.HeightOptionFunc(height),
	)
	if err != nil {
		return nil, fmt.Errorf("render %q: %w", title, err)
	}
	return painter.Bytes()
}

func hideSymbols(opt *charts.ChartOption) {
	opt.SymbolShow = charts.FalseFlag()
}

// padRange widens [lo, hi] by 5% so lines do not touch the frame. Values can
// be negative (spreads), so nothing is clamped at zero.
func padRange(lo, hi float64) (float64, float64) {
	pad := (hi - lo) * 0.05
	if floor := math.Max(math.Abs(hi), math.Abs(lo)) * 0.002; pad < floor {
		pad = floor
	}
	if pad == 0 {
		pad = 0.01
	}
	return lo - pad, hi + pad
}

// sampleRows picks at most limit row indexes spread evenly over n rows,
// always including the first and last.
func sampleRows(n, limit int) []int {
	if n <= limit {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	idx := make([]int, 0, limit)
	step := float64(n-1) / float64(limit-1)
	for i := 0; i < limit; i++ {
		idx = append(idx, int(math.Round(float64(i)*step)))
	}
	return idx
}

func splitNumber(n int) int {
	if n < 10 {
		return n
	}
	return 10
}

// dateLabel picks a label format from the span of the index.
func dateLabel(dates []time.Time) string {
	if len(dates) < 2 {
		return "2006-01-02"
	}
	span := dates[len(dates)-1].Sub(dates[0])
	switch {
	case span <= 93*24*time.Hour:
		return "Jan 02"
	case span <= 3*365*24*time.Hour:
		return "Jan 2006"
	default:
		return "2006"
	}
}

// ParseWindow maps user input such as "1m", "6m", "1y", "5y" or "max" to a
// look-back duration. Unknown input falls back to "max" (zero).
func ParseWindow(w string) time.Duration {
	const day = 24 * time.Hour
	switch strings.ToLower(strings.TrimSpace(w)) {
	case "1m", "1mo", "month":
		return 31 * day
	case "3m", "3mo":
		return 92 * day
	case "6m", "6mo":
		return 183 * day
	case "1y", "year":
		return 366 * day
	case "2y":
		return 2 * 366 * day
	case "5y":
		return 5 * 366 * day
	case "10y":
		return 10 * 366 * day
	default:
		return 0
	}
}
