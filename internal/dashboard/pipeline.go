// Package dashboard turns the series catalogue into the panels of one page:
// load every group, align it, derive each panel's frame.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"ratesDashboard/internal/frame"
	"ratesDashboard/internal/observability"
	"ratesDashboard/internal/series"
)

const (
	title  = "Interest Rate Dashboard"
	header = "Rates Overview"
)

// Pipeline renders dashboards from a series source.
type Pipeline struct {
	src    series.Source
	groups []Group
	logger *log.Logger
	now    func() time.Time
}

type Option func(*Pipeline)

// WithLogger replaces the default stderr logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithClock sets the time source used for GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a pipeline reading from src, typically a *series.Cache.
func New(src series.Source, opts ...Option) *Pipeline {
	p := &Pipeline{
		src:    src,
		groups: Groups,
		logger: log.New(os.Stderr, "[dashboard] ", log.LstdFlags),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type groupResult struct {
	frame *frame.Frame
	err   error
}

// Render loads every group and computes every panel. A group that cannot be
// loaded degrades only the panels built from it; the only error returned is
// the context's.
func (p *Pipeline) Render(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{
		RenderID:    uuid.NewString(),
		Title:       title,
		Header:      header,
		GeneratedAt: p.now().UTC(),
	}

	loaded := make(map[string]groupResult, len(p.groups))
	for _, g := range p.groups {
		if err := ctx.Err(); err != nil {
			observability.RecordRender(err)
			return nil, err
		}
		f, err := p.loadGroup(ctx, g)
		if ctxErr := ctx.Err(); ctxErr != nil {
			observability.RecordRender(ctxErr)
			return nil, ctxErr
		}
		if err != nil {
			p.logger.Printf("render %s: group %s unavailable: %v", d.RenderID, g.Name, err)
		}
		loaded[g.Name] = groupResult{frame: f, err: err}
	}

	for _, spec := range panelSpecs {
		panel := p.buildPanel(spec, loaded[spec.group])
		if !panel.Available() {
			reason := "unavailable"
			if panel.NoData() {
				reason = "no_data"
			}
			observability.RecordPanelUnavailable(panel.ID, reason)
		}
		if spec.right {
			d.Right = append(d.Right, panel)
		} else {
			d.Left = append(d.Left, panel)
		}
	}
	observability.RecordRender(nil)
	p.logger.Printf("render %s: %d panels in %s", d.RenderID, len(panelSpecs), p.now().UTC().Sub(d.GeneratedAt).Round(time.Millisecond))
	return d, nil
}

// loadGroup retrieves every series of g and aligns them. Any retrieval
// failure fails the whole group.
func (p *Pipeline) loadGroup(ctx context.Context, g Group) (*frame.Frame, error) {
	named := make([]frame.Named, 0, len(g.Columns))
	for _, c := range g.Columns {
		s, err := p.src.Retrieve(ctx, c.SeriesID)
		if err != nil {
			return nil, fmt.Errorf("%s (%s): %w", c.Label, c.SeriesID, err)
		}
		named = append(named, frame.Named{Name: c.Label, Series: s})
	}
	return frame.Build(named...)
}

func (p *Pipeline) buildPanel(spec panelSpec, g groupResult) *Panel {
	panel := &Panel{
		ID:         spec.id,
		Title:      spec.title,
		ChartTitle: spec.chartTitle,
		Kind:       spec.kind,
		Group:      spec.group,
	}
	switch {
	case g.err != nil:
		panel.Err = g.err
		return panel
	case g.frame == nil:
		panel.Err = fmt.Errorf("group %s not loaded", spec.group)
		return panel
	case g.frame.Empty():
		panel.Err = fmt.Errorf("%s: %w", spec.group, frame.ErrEmptyFrame)
		return panel
	}

	f, err := spec.build(g.frame)
	if err != nil {
		panel.Err = fmt.Errorf("%s: %w", spec.id, err)
		return panel
	}
	if f.Empty() {
		panel.Err = fmt.Errorf("%s: %w", spec.id, frame.ErrEmptyFrame)
		return panel
	}
	panel.Frame = f
	return panel
}

// Unavailable reports whether err came from the series source rather than
// from the data itself.
func Unavailable(err error) bool {
	return errors.Is(err, series.ErrSourceUnavailable)
}
