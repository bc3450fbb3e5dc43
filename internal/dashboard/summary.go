package dashboard

import (
	"fmt"
	"strings"
)

// Summary returns one line per panel with the latest values, e.g.
//
//	10Y Treasury Yield (2024-06-05): 10Y 4.29
//	Rate Move Heatmap (2024-06-05): 2Y -8.0bp, 5Y -6.0bp
func (d *Dashboard) Summary() []string {
	lines := make([]string, 0, len(d.Left)+len(d.Right))
	for _, p := range d.Panels() {
		lines = append(lines, p.Summary())
	}
	return lines
}

// Summary describes the panel's last row, or why it has none.
func (p *Panel) Summary() string {
	if !p.Available() {
		if p.NoData() {
			return p.Title + ": no data"
		}
		return p.Title + ": unavailable"
	}
	last := p.Frame.Len() - 1
	row := p.Frame.Row(last)
	names := p.Frame.Names()
	parts := make([]string, len(names))
	for i, n := range names {
		if p.Kind == KindHeatmap {
			parts[i] = fmt.Sprintf("%s %+.1fbp", n, row[i]*100)
		} else {
			parts[i] = fmt.Sprintf("%s %.2f", n, row[i])
		}
	}
	return fmt.Sprintf("%s (%s): %s", p.Title, p.Frame.Dates()[last].Format("2006-01-02"), strings.Join(parts, ", "))
}
