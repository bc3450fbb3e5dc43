package server

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"ratesDashboard/internal/dashboard"
)

const defaultSnapshotTTL = 30 * time.Second

// snapshot keeps the last rendered dashboard so the chart images of one page
// view are drawn from the render that produced the page.
type snapshot struct {
	r   Renderer
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	d      *dashboard.Dashboard
	at     time.Time
	flight singleflight.Group
}

func newSnapshot(r Renderer, ttl time.Duration) *snapshot {
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	return &snapshot{r: r, ttl: ttl, now: time.Now}
}

// fresh always renders and remembers the result.
func (s *snapshot) fresh(ctx context.Context) (*dashboard.Dashboard, error) {
	d, err := s.r.Render(ctx)
	if err != nil {
		return nil, err
	}
	s.store(d)
	return d, nil
}

// recent returns the remembered dashboard while it is younger than ttl,
// otherwise renders once for all concurrent callers.
func (s *snapshot) recent(ctx context.Context) (*dashboard.Dashboard, error) {
	s.mu.Lock()
	if s.d != nil && s.now().Sub(s.at) < s.ttl {
		d := s.d
		s.mu.Unlock()
		return d, nil
	}
	s.mu.Unlock()

	render := context.WithoutCancel(ctx)
	ch := s.flight.DoChan("render", func() (any, error) {
		return s.fresh(render)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*dashboard.Dashboard), nil
	}
}

func (s *snapshot) store(d *dashboard.Dashboard) {
	s.mu.Lock()
	s.d, s.at = d, s.now()
	s.mu.Unlock()
}
