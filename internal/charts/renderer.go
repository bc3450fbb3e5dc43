package charts

import (
	"fmt"
	"time"

	"ratesDashboard/internal/dashboard"
	"ratesDashboard/internal/frame"
	"ratesDashboard/internal/observability"
)

// Renderer draws dashboard panels and caches the images.
type Renderer struct {
	cache *imageCache
}

// NewRenderer returns a renderer whose images expire after ttl. A ttl <= 0
// disables caching.
func NewRenderer(ttl time.Duration) *Renderer {
	return &Renderer{cache: newImageCache(ttl)}
}

// Panel draws p. window limits line charts to the trailing period ending at
// the panel's last date; zero draws the full history. The heatmap ignores it.
func (r *Renderer) Panel(p *dashboard.Panel, window time.Duration) ([]byte, error) {
	if !p.Available() {
		if p.NoData() {
			return nil, ErrNoData
		}
		return nil, fmt.Errorf("%s unavailable: %w", p.ID, p.Err)
	}
	f := p.Frame
	if p.Kind == dashboard.KindLine && window > 0 {
		last := f.Dates()[f.Len()-1]
		f = f.Since(last.Add(-window))
	}

	key := cacheKey(p, f, window)
	if img, ok := r.cache.get(key); ok {
		observability.RecordChart(true)
		return img, nil
	}
	observability.RecordChart(false)

	var (
		img []byte
		err error
	)
	switch p.Kind {
	case dashboard.KindHeatmap:
		img, err = MoveChart(p.ChartTitle, f)
	default:
		img, err = LineChart(p.ChartTitle, f)
	}
	if err != nil {
		return nil, err
	}
	r.cache.set(key, img)
	return img, nil
}

// cacheKey identifies a drawing by panel, window and the extent of its data.
func cacheKey(p *dashboard.Panel, f *frame.Frame, window time.Duration) string {
	var first, last string
	if n := f.Len(); n > 0 {
		dates := f.Dates()
		first = dates[0].Format("20060102")
		last = dates[n-1].Format("20060102")
	}
	return fmt.Sprintf("%s|%s|%s-%s|%d", p.ID, window, first, last, f.Len())
}
