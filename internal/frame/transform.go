package frame

import (
	"errors"
	"fmt"
)

// ErrZeroBase is returned by Rebase when the first value of the column is zero.
var ErrZeroBase = errors.New("cannot rebase a column whose first value is zero")

// Diff returns f[a] - f[b] row by row, named "a - b".
func Diff(f *Frame, a, b string) (Column, error) {
	ca, err := f.Column(a)
	if err != nil {
		return Column{}, err
	}
	cb, err := f.Column(b)
	if err != nil {
		return Column{}, err
	}
	out := make([]float64, len(ca.Values))
	for i := range ca.Values {
		out[i] = ca.Values[i] - cb.Values[i]
	}
	return Column{Name: a + " - " + b, Dates: ca.Dates, Values: out}, nil
}

// Complement returns constant - f[col] row by row.
func Complement(f *Frame, col string, constant float64) (Column, error) {
	c, err := f.Column(col)
	if err != nil {
		return Column{}, err
	}
	out := make([]float64, len(c.Values))
	for i, v := range c.Values {
		out[i] = constant - v
	}
	return Column{Name: fmt.Sprintf("%g - %s", constant, col), Dates: c.Dates, Values: out}, nil
}

// Delta returns the change of every column from the previous row. The first
// row has no predecessor and is dropped.
func Delta(f *Frame) *Frame {
	if f.Len() < 2 {
		return f.Tail(0)
	}
	out := newFrame(f.Dates()[1:])
	for _, name := range f.names {
		src := f.columns[name]
		vals := make([]float64, len(src)-1)
		for i := 1; i < len(src); i++ {
			vals[i-1] = src[i] - src[i-1]
		}
		out.names = append(out.names, name)
		out.columns[name] = vals
	}
	return out
}

// Rebase scales f[col] so its first row equals base.
func Rebase(f *Frame, col string, base float64) (Column, error) {
	c, err := f.Column(col)
	if err != nil {
		return Column{}, err
	}
	if len(c.Values) == 0 {
		return c, nil
	}
	first := c.Values[0]
	if first == 0 {
		return Column{}, fmt.Errorf("%w: %q", ErrZeroBase, col)
	}
	out := make([]float64, len(c.Values))
	for i, v := range c.Values {
		out[i] = v / first * base
	}
	return Column{Name: c.Name, Dates: c.Dates, Values: out}, nil
}

// Rename returns c under a new name.
func (c Column) Rename(name string) Column {
	c.Name = name
	return c
}
