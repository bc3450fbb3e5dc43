package dashboard

import (
	"errors"
	"time"

	"ratesDashboard/internal/frame"
)

// Kind selects how a panel is drawn.
type Kind int

const (
	KindLine Kind = iota
	KindHeatmap
)

func (k Kind) String() string {
	if k == KindHeatmap {
		return "heatmap"
	}
	return "line"
}

// Panel is one titled chart of the page. Exactly one of Frame or Err is set.
type Panel struct {
	ID         string
	Title      string
	ChartTitle string
	Kind       Kind
	Group      string
	Frame      *frame.Frame
	Err        error
}

// Available reports whether the panel has data to draw.
func (p *Panel) Available() bool { return p.Err == nil && p.Frame != nil }

// NoData reports whether the panel's sources loaded but share no dates.
func (p *Panel) NoData() bool { return errors.Is(p.Err, frame.ErrEmptyFrame) }

// Status is a short machine-friendly state: "ok", "no data" or "unavailable".
func (p *Panel) Status() string {
	switch {
	case p.Available():
		return "ok"
	case p.NoData():
		return "no data"
	default:
		return "unavailable"
	}
}

// Dashboard is the result of one render.
type Dashboard struct {
	RenderID    string
	Title       string
	Header      string
	GeneratedAt time.Time
	Left        []*Panel
	Right       []*Panel
}

// Panels returns all panels, left column first.
func (d *Dashboard) Panels() []*Panel {
	out := make([]*Panel, 0, len(d.Left)+len(d.Right))
	out = append(out, d.Left...)
	return append(out, d.Right...)
}

// Panel looks up a panel by id.
func (d *Dashboard) Panel(id string) (*Panel, bool) {
	for _, p := range d.Panels() {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}
