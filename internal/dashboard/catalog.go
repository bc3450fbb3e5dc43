package dashboard

import (
	"fmt"

	"ratesDashboard/internal/frame"
)

// Column maps a display label to the FRED identifier that fills it.
type Column struct {
	Label    string
	SeriesID string
}

// Group is a set of series loaded together and aligned into one frame.
type Group struct {
	Name    string
	Columns []Column
}

const (
	GroupYields   = "yields"
	GroupPolicy   = "policy"
	GroupReal     = "real"
	GroupEquities = "equities"
)

// Groups is the fixed series catalogue, in load order.
var Groups = []Group{
	{Name: GroupYields, Columns: []Column{
		{"2Y", "DGS2"},
		{"5Y", "DGS5"},
		{"10Y", "DGS10"},
		{"30Y", "DGS30"},
	}},
	{Name: GroupPolicy, Columns: []Column{
		{"SOFR", "SOFR"},
		{"ESTR", "ECBESTRVOLWGTTRMDMNRT"},
		{"Canada O/N", "IRSTCI01CAM156N"},
	}},
	{Name: GroupReal, Columns: []Column{
		{"5Y Real", "DFII5"},
		{"10Y Real", "DFII10"},
	}},
	{Name: GroupEquities, Columns: []Column{
		{"S&P 500", "SP500"},
		{"Dow Jones", "DJIA"},
		{"Nasdaq", "NASDAQCOM"},
	}},
}

// HeatmapRows is how many daily changes the heatmap shows.
const HeatmapRows = 20

// panelSpec describes one panel: the group it reads and how it derives its frame.
// build receives the group frame and must not modify it.
type panelSpec struct {
	id         string
	title      string
	chartTitle string
	kind       Kind
	group      string
	right      bool
	build      func(*frame.Frame) (*frame.Frame, error)
}

var panelSpecs = []panelSpec{
	{
		id: "10y", title: "10Y Treasury Yield", chartTitle: "10Y Treasury Yield",
		kind: KindLine, group: GroupYields,
		build: func(f *frame.Frame) (*frame.Frame, error) { return f.Select("10Y") },
	},
	{
		id: "curve", title: "Yield Curve Shape", chartTitle: "Yield Curve Spreads (Steepening vs Flattening)",
		kind: KindLine, group: GroupYields,
		build: curveSpreads,
	},
	{
		id: "real", title: "Real Yields", chartTitle: "US Real Yields (TIPS)",
		kind: KindLine, group: GroupReal,
		build: func(f *frame.Frame) (*frame.Frame, error) { return f.Select(f.Names()...) },
	},
	{
		id: "equities", title: "Equity Indices", chartTitle: "Equity Indices (rebased to 100)",
		kind: KindLine, group: GroupEquities,
		build: rebasedEquities,
	},
	{
		id: "sofr", title: "Implied SOFR Policy Rate", chartTitle: "Implied Policy Rate from SOFR",
		kind: KindLine, group: GroupPolicy, right: true,
		build: impliedSOFR,
	},
	{
		id: "divergence", title: "Policy Divergence", chartTitle: "Policy Rate Spreads",
		kind: KindLine, group: GroupPolicy, right: true,
		build: policySpreads,
	},
	{
		id: "heatmap", title: "Rate Move Heatmap", chartTitle: "Daily Yield Changes (bps)",
		kind: KindHeatmap, group: GroupYields, right: true,
		build: yieldMoves,
	},
}

// PanelIDs lists every panel identifier in page order.
func PanelIDs() []string {
	ids := make([]string, 0, len(panelSpecs))
	for _, s := range panelSpecs {
		ids = append(ids, s.id)
	}
	return ids
}

func curveSpreads(f *frame.Frame) (*frame.Frame, error) {
	twoTen, err := frame.Diff(f, "10Y", "2Y")
	if err != nil {
		return nil, err
	}
	fiveThirty, err := frame.Diff(f, "30Y", "5Y")
	if err != nil {
		return nil, err
	}
	return frame.FromColumns(twoTen.Rename("2s10s"), fiveThirty.Rename("5s30s"))
}

func impliedSOFR(f *frame.Frame) (*frame.Frame, error) {
	c, err := frame.Complement(f, "SOFR", 100)
	if err != nil {
		return nil, err
	}
	return frame.FromColumns(c.Rename("Implied SOFR"))
}

func policySpreads(f *frame.Frame) (*frame.Frame, error) {
	estr, err := frame.Diff(f, "SOFR", "ESTR")
	if err != nil {
		return nil, err
	}
	canada, err := frame.Diff(f, "SOFR", "Canada O/N")
	if err != nil {
		return nil, err
	}
	return frame.FromColumns(estr, canada.Rename("SOFR - Canada"))
}

func rebasedEquities(f *frame.Frame) (*frame.Frame, error) {
	cols := make([]frame.Column, 0, len(f.Names()))
	for _, name := range f.Names() {
		c, err := frame.Rebase(f, name, 100)
		if err != nil {
			return nil, fmt.Errorf("rebase %s: %w", name, err)
		}
		cols = append(cols, c)
	}
	return frame.FromColumns(cols...)
}

// yieldMoves reads only the four raw tenors, so spreads never leak into the heatmap.
func yieldMoves(f *frame.Frame) (*frame.Frame, error) {
	tenors, err := f.Select("2Y", "5Y", "10Y", "30Y")
	if err != nil {
		return nil, err
	}
	return frame.Delta(tenors).Tail(HeatmapRows), nil
}
