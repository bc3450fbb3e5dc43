package dashboard

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratesDashboard/internal/frame"
	"ratesDashboard/internal/series"
)

type fakeSource struct {
	mu    sync.Mutex
	data  map[string]*series.Series
	fail  map[string]bool
	calls map[string]int
}

func (f *fakeSource) Retrieve(ctx context.Context, id string) (*series.Series, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[id]++
	if err := ctx.Err(); err != nil {
		return nil, series.Unavailable(id, err)
	}
	if f.fail[id] {
		return nil, series.Unavailable(id, errors.New("fred returned 400: Bad Request"))
	}
	s, ok := f.data[id]
	if !ok {
		return nil, series.Unavailable(id, errors.New("unknown series"))
	}
	return s.Clone(), nil
}

func day(d int) time.Time { return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC) }

func daily(id string, first int, vals ...float64) *series.Series {
	s := &series.Series{ID: id}
	for i, v := range vals {
		s.Observations = append(s.Observations, series.Observation{Date: day(first + i), Value: v})
	}
	return s
}

func fullSource() *fakeSource {
	return &fakeSource{data: map[string]*series.Series{
		"DGS2":                  daily("DGS2", 3, 4.80, 4.85, 4.78, 4.70),
		"DGS5":                  daily("DGS5", 3, 4.40, 4.42, 4.35, 4.29),
		"DGS10":                 daily("DGS10", 3, 4.40, 4.45, 4.41, 4.29),
		"DGS30":                 daily("DGS30", 3, 4.55, 4.58, 4.52, 4.44),
		"SOFR":                  daily("SOFR", 3, 5.33, 5.33, 5.32, 5.31),
		"ECBESTRVOLWGTTRMDMNRT": daily("ECBESTRVOLWGTTRMDMNRT", 3, 3.91, 3.90, 3.90, 3.66),
		"IRSTCI01CAM156N":       daily("IRSTCI01CAM156N", 3, 5.00, 5.00, 4.75, 4.75),
		"DFII5":                 daily("DFII5", 3, 2.10, 2.12, 2.05, 2.01),
		"DFII10":                daily("DFII10", 3, 2.05, 2.08, 2.03, 1.98),
		"SP500":                 daily("SP500", 3, 5000, 5050, 4950, 5100),
		"DJIA":                  daily("DJIA", 3, 38000, 38380, 37620, 38760),
		"NASDAQCOM":             daily("NASDAQCOM", 3, 16000, 16160, 15840, 16320),
	}}
}

func quietPipeline(src series.Source) *Pipeline {
	return New(src, WithLogger(log.New(io.Discard, "", 0)))
}

func TestRender_AllPanels(t *testing.T) {
	d, err := quietPipeline(fullSource()).Render(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, d.RenderID)
	assert.Equal(t, "Interest Rate Dashboard", d.Title)
	require.Len(t, d.Left, 4)
	require.Len(t, d.Right, 3)

	var ids []string
	for _, p := range d.Panels() {
		ids = append(ids, p.ID)
		assert.True(t, p.Available(), p.ID)
		assert.Equal(t, "ok", p.Status())
	}
	assert.Equal(t, PanelIDs(), ids)

	curve, ok := d.Panel("curve")
	require.True(t, ok)
	assert.Equal(t, []string{"2s10s", "5s30s"}, curve.Frame.Names())
	spread, err := curve.Frame.Column("2s10s")
	require.NoError(t, err)
	assert.InDelta(t, 4.29-4.70, spread.Values[3], 1e-12)

	sofr, _ := d.Panel("sofr")
	implied, err := sofr.Frame.Column("Implied SOFR")
	require.NoError(t, err)
	assert.InDelta(t, 94.67, implied.Values[0], 1e-9)

	div, _ := d.Panel("divergence")
	assert.Equal(t, []string{"SOFR - ESTR", "SOFR - Canada"}, div.Frame.Names())

	eq, _ := d.Panel("equities")
	sp, err := eq.Frame.Column("S&P 500")
	require.NoError(t, err)
	assert.Equal(t, 100.0, sp.Values[0])
	assert.InDelta(t, 102.0, sp.Values[3], 1e-9)
}

func TestRender_HeatmapUsesRawTenorsOnly(t *testing.T) {
	d, err := quietPipeline(fullSource()).Render(context.Background())
	require.NoError(t, err)

	h, ok := d.Panel("heatmap")
	require.True(t, ok)
	assert.Equal(t, KindHeatmap, h.Kind)
	assert.Equal(t, []string{"2Y", "5Y", "10Y", "30Y"}, h.Frame.Names())
	assert.Equal(t, 3, h.Frame.Len())
	assert.Equal(t, day(4), h.Frame.Dates()[0])

	two, _ := h.Frame.Column("2Y")
	assert.InDelta(t, 4.70-4.78, two.Values[2], 1e-12)
}

func TestRender_FailedGroupDegradesOnlyItsPanels(t *testing.T) {
	src := fullSource()
	src.fail = map[string]bool{"DFII10": true}

	d, err := quietPipeline(src).Render(context.Background())
	require.NoError(t, err)

	reals, ok := d.Panel("real")
	require.True(t, ok)
	assert.False(t, reals.Available())
	assert.False(t, reals.NoData())
	assert.Equal(t, "unavailable", reals.Status())
	assert.ErrorIs(t, reals.Err, series.ErrSourceUnavailable)
	assert.True(t, Unavailable(reals.Err))
	assert.Contains(t, reals.Err.Error(), "DFII10")

	for _, id := range []string{"10y", "curve", "equities", "sofr", "divergence", "heatmap"} {
		p, _ := d.Panel(id)
		assert.True(t, p.Available(), id)
	}
}

func TestRender_DisjointDatesIsNoData(t *testing.T) {
	src := fullSource()
	src.data["DJIA"] = daily("DJIA", 10, 38000, 38100)

	d, err := quietPipeline(src).Render(context.Background())
	require.NoError(t, err)

	eq, _ := d.Panel("equities")
	assert.True(t, eq.NoData())
	assert.ErrorIs(t, eq.Err, frame.ErrEmptyFrame)
	assert.Equal(t, "Equity Indices: no data", eq.Summary())
}

func TestRender_SingleRowYieldsHeatmapNoData(t *testing.T) {
	src := fullSource()
	for _, id := range []string{"DGS2", "DGS5", "DGS10", "DGS30"} {
		src.data[id] = daily(id, 3, 4.0)
	}

	d, err := quietPipeline(src).Render(context.Background())
	require.NoError(t, err)

	tenY, _ := d.Panel("10y")
	assert.True(t, tenY.Available())
	h, _ := d.Panel("heatmap")
	assert.True(t, h.NoData())
}

func TestRender_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d, err := quietPipeline(fullSource()).Render(ctx)
	assert.Nil(t, d)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRender_UniqueRenderIDs(t *testing.T) {
	p := quietPipeline(fullSource())
	a, err := p.Render(context.Background())
	require.NoError(t, err)
	b, err := p.Render(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, a.RenderID, b.RenderID)
}

func TestRender_ThroughCacheRetrievesOnce(t *testing.T) {
	src := fullSource()
	p := quietPipeline(series.NewCache(src))
	for i := 0; i < 3; i++ {
		_, err := p.Render(context.Background())
		require.NoError(t, err)
	}
	for id, n := range src.calls {
		assert.Equal(t, 1, n, id)
	}
	assert.Len(t, src.calls, 12)
}

func TestSummary(t *testing.T) {
	src := fullSource()
	src.fail = map[string]bool{"SOFR": true}

	d, err := quietPipeline(src).Render(context.Background())
	require.NoError(t, err)

	lines := d.Summary()
	require.Len(t, lines, 7)
	assert.Equal(t, "10Y Treasury Yield (2024-06-06): 10Y 4.29", lines[0])
	assert.Equal(t, "Implied SOFR Policy Rate: unavailable", lines[4])
	assert.Equal(t, "Rate Move Heatmap (2024-06-06): 2Y -8.0bp, 5Y -6.0bp, 10Y -12.0bp, 30Y -8.0bp", lines[6])
}
