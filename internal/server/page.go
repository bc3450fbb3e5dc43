package server

import (
	_ "embed"
	"fmt"
	"html/template"
	"math"
	"net/url"

	"ratesDashboard/internal/dashboard"
)

//go:embed page.html
var pageHTML string

var pageTemplate = template.Must(template.New("page").Parse(pageHTML))

var windows = []string{"1m", "6m", "1y", "5y", "max"}

type pageView struct {
	Title       string
	Header      string
	RenderID    string
	GeneratedAt string
	Window      string
	Windows     []string
	Left        []panelView
	Right       []panelView
}

type panelView struct {
	ID       string
	Title    string
	Status   string
	Message  string
	ImageURL string
	Heatmap  *heatmapView
}

type heatmapView struct {
	Title string
	Dates []string
	Rows  []heatmapRow
}

type heatmapRow struct {
	Name  string
	Cells []heatmapCell
}

type heatmapCell struct {
	Text  string
	Color template.CSS
}

func newPageView(d *dashboard.Dashboard, window string) pageView {
	if window == "" {
		window = "max"
	}
	v := pageView{
		Title:       d.Title,
		Header:      d.Header,
		RenderID:    d.RenderID,
		GeneratedAt: d.GeneratedAt.Format("2006-01-02 15:04 MST"),
		Window:      window,
		Windows:     windows,
	}
	for _, p := range d.Left {
		v.Left = append(v.Left, newPanelView(p, window))
	}
	for _, p := range d.Right {
		v.Right = append(v.Right, newPanelView(p, window))
	}
	return v
}

func newPanelView(p *dashboard.Panel, window string) panelView {
	v := panelView{ID: p.ID, Title: p.Title, Status: p.Status()}
	switch {
	case p.NoData():
		v.Message = "No data for the selected series."
	case !p.Available():
		v.Message = "Data unavailable: " + p.Err.Error()
	case p.Kind == dashboard.KindHeatmap:
		v.Heatmap = newHeatmapView(p)
	default:
		v.ImageURL = "/charts/" + url.PathEscape(p.ID) + ".png?window=" + url.QueryEscape(window)
	}
	return v
}

// newHeatmapView lays the frame out with one row per column and one cell per
// date, values in basis points.
func newHeatmapView(p *dashboard.Panel) *heatmapView {
	f := p.Frame
	h := &heatmapView{Title: p.ChartTitle}
	for _, d := range f.Dates() {
		h.Dates = append(h.Dates, d.Format("Jan 02"))
	}

	var maxAbs float64
	for i := 0; i < f.Len(); i++ {
		for _, v := range f.Row(i) {
			maxAbs = math.Max(maxAbs, math.Abs(v*100))
		}
	}
	for _, name := range f.Names() {
		col, err := f.Column(name)
		if err != nil {
			continue
		}
		row := heatmapRow{Name: name}
		for _, v := range col.Values {
			bps := v * 100
			row.Cells = append(row.Cells, heatmapCell{
				Text:  fmt.Sprintf("%+.1f", bps),
				Color: template.CSS(heatColor(bps, maxAbs)),
			})
		}
		h.Rows = append(h.Rows, row)
	}
	return h
}

// heatColor maps v in [-limit, limit] onto a reversed red-yellow-green scale:
// falling rates are green, rising rates red.
func heatColor(v, limit float64) string {
	green := [3]float64{26, 152, 80}
	yellow := [3]float64{255, 255, 191}
	red := [3]float64{215, 48, 39}

	t := 0.0
	if limit > 0 {
		t = math.Max(-1, math.Min(1, v/limit))
	}
	from, to := yellow, red
	if t < 0 {
		to, t = green, -t
	}
	var rgb [3]int
	for i := range rgb {
		rgb[i] = int(math.Round(from[i] + (to[i]-from[i])*t))
	}
	return fmt.Sprintf("rgb(%d, %d, %d)", rgb[0], rgb[1], rgb[2])
}
