// Package frame aligns named series on a shared date index and derives
// columns from them.
//
// A Frame built with Build never holds a missing cell, so every transform in
// this package is plain row-aligned arithmetic. Derived columns are appended
// with Add and must reuse the frame's own dates.
package frame

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"ratesDashboard/internal/series"
)

var (
	// ErrUnknownColumn is returned when a transform names a column the frame does not hold.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrDuplicateColumn is returned when a column name is used twice in one frame.
	ErrDuplicateColumn = errors.New("duplicate column")

	// ErrMisaligned is returned when a column's dates differ from the frame index.
	ErrMisaligned = errors.New("column dates do not match frame index")

	// ErrNoSeries is returned by Build when a column has no series behind it.
	ErrNoSeries = errors.New("column has no series")

	// ErrEmptyFrame is advisory: the frame has no rows after alignment.
	// Presentation treats it as "no data".
	ErrEmptyFrame = errors.New("empty frame: no dates common to all columns")
)

// Named binds a column name to the series that fills it.
type Named struct {
	Name   string
	Series *series.Series
}

// Frame is a missing-free table of float columns over ascending unique dates.
type Frame struct {
	dates   []time.Time
	names   []string
	columns map[string][]float64
}

// Column is a single named column together with the dates it is aligned to.
type Column struct {
	Name   string
	Dates  []time.Time
	Values []float64
}

// Day coerces t to its canonical calendar day at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newFrame(dates []time.Time) *Frame {
	return &Frame{dates: dates, columns: map[string][]float64{}}
}

// Build aligns the given series on the intersection of their dates.
// Rows with a missing value in any column are dropped and the result is
// sorted by date. An empty intersection yields an empty frame, not an error.
func Build(cols ...Named) (*Frame, error) {
	seen := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name)
		}
		if c.Series == nil {
			return nil, fmt.Errorf("%w: %q", ErrNoSeries, c.Name)
		}
		seen[c.Name] = struct{}{}
	}

	// one value map per column, keyed by canonical day; last observation wins
	valueMaps := make([]map[time.Time]float64, len(cols))
	count := map[time.Time]int{}
	for i, c := range cols {
		mp := make(map[time.Time]float64, c.Series.Len())
		for _, o := range c.Series.Observations {
			mp[Day(o.Date)] = o.Value
		}
		for d, v := range mp {
			if series.IsMissing(v) {
				continue
			}
			count[d]++
		}
		valueMaps[i] = mp
	}

	common := make([]time.Time, 0, len(count))
	if len(cols) > 0 {
		for d, n := range count {
			if n == len(cols) {
				common = append(common, d)
			}
		}
	}
	sort.Slice(common, func(i, j int) bool { return common[i].Before(common[j]) })

	f := newFrame(common)
	for i, c := range cols {
		vals := make([]float64, len(common))
		for j, d := range common {
			vals[j] = valueMaps[i][d]
		}
		f.names = append(f.names, c.Name)
		f.columns[c.Name] = vals
	}
	return f, nil
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.dates) }

// Empty reports whether the frame has no rows.
func (f *Frame) Empty() bool { return len(f.dates) == 0 }

// Dates returns a copy of the date index.
func (f *Frame) Dates() []time.Time {
	out := make([]time.Time, len(f.dates))
	copy(out, f.dates)
	return out
}

// Names returns the column names in insertion order.
func (f *Frame) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Has reports whether the frame holds a column called name.
func (f *Frame) Has(name string) bool {
	_, ok := f.columns[name]
	return ok
}

// Column returns a copy of the named column.
func (f *Frame) Column(name string) (Column, error) {
	vals, ok := f.columns[name]
	if !ok {
		return Column{}, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	out := make([]float64, len(vals))
	copy(out, vals)
	return Column{Name: name, Dates: f.Dates(), Values: out}, nil
}

// Add appends a derived column. Its dates must equal the frame index.
func (f *Frame) Add(c Column) error {
	if _, dup := f.columns[c.Name]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name)
	}
	if len(c.Dates) != len(f.dates) || len(c.Values) != len(f.dates) {
		return fmt.Errorf("%w: %q has %d rows, frame has %d", ErrMisaligned, c.Name, len(c.Values), len(f.dates))
	}
	for i, d := range c.Dates {
		if !d.Equal(f.dates[i]) {
			return fmt.Errorf("%w: %q differs at row %d", ErrMisaligned, c.Name, i)
		}
	}
	vals := make([]float64, len(c.Values))
	copy(vals, c.Values)
	f.names = append(f.names, c.Name)
	f.columns[c.Name] = vals
	return nil
}

// Select returns a new frame holding only the named columns, in the given order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	out := newFrame(f.Dates())
	for _, n := range names {
		vals, ok := f.columns[n]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, n)
		}
		if _, dup := out.columns[n]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, n)
		}
		cp := make([]float64, len(vals))
		copy(cp, vals)
		out.names = append(out.names, n)
		out.columns[n] = cp
	}
	return out, nil
}

// FromColumns assembles a frame from columns that already share one date index.
func FromColumns(cols ...Column) (*Frame, error) {
	if len(cols) == 0 {
		return newFrame(nil), nil
	}
	dates := make([]time.Time, len(cols[0].Dates))
	copy(dates, cols[0].Dates)
	f := newFrame(dates)
	for _, c := range cols {
		if err := f.Add(c); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Tail returns the last n rows by date. Fewer rows than n returns all of
// them; n <= 0 returns an empty frame with the same columns.
func (f *Frame) Tail(n int) *Frame {
	start := tailStart(len(f.dates), n)
	out := newFrame(append([]time.Time(nil), f.dates[start:]...))
	for _, name := range f.names {
		out.names = append(out.names, name)
		out.columns[name] = append([]float64(nil), f.columns[name][start:]...)
	}
	return out
}

// Since returns the rows dated on or after from.
func (f *Frame) Since(from time.Time) *Frame {
	from = Day(from)
	i := sort.Search(len(f.dates), func(i int) bool { return !f.dates[i].Before(from) })
	return f.Tail(len(f.dates) - i)
}

// Row returns the values of row i in column order.
func (f *Frame) Row(i int) []float64 {
	out := make([]float64, len(f.names))
	for j, n := range f.names {
		out[j] = f.columns[n][i]
	}
	return out
}

// Len returns the number of rows in the column.
func (c Column) Len() int { return len(c.Values) }

// Tail returns the last n rows of the column with the same rules as Frame.Tail.
func (c Column) Tail(n int) Column {
	start := tailStart(len(c.Values), n)
	dates := make([]time.Time, len(c.Dates)-start)
	copy(dates, c.Dates[start:])
	vals := make([]float64, len(c.Values)-start)
	copy(vals, c.Values[start:])
	return Column{Name: c.Name, Dates: dates, Values: vals}
}

// Last returns the final value and its date.
func (c Column) Last() (time.Time, float64, bool) {
	if len(c.Values) == 0 {
		return time.Time{}, 0, false
	}
	i := len(c.Values) - 1
	return c.Dates[i], c.Values[i], true
}

func tailStart(length, n int) int {
	if n <= 0 {
		return length
	}
	if n >= length {
		return 0
	}
	return length - n
}
