package series

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrSourceUnavailable is matched by every retrieval failure: network, auth,
// unknown identifier or a payload that could not be decoded.
var ErrSourceUnavailable = errors.New("source unavailable")

// Observation is one dated value. A missing value is NaN.
type Observation struct {
	Date  time.Time
	Value float64
}

// Series is one identifier and its observations in retrieval order.
type Series struct {
	ID           string
	Observations []Observation
}

// Source retrieves a named series by identifier.
type Source interface {
	Retrieve(ctx context.Context, id string) (*Series, error)
}

// SourceError reports a failed retrieval for a single identifier.
type SourceError struct {
	ID  string
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("series %s: %s: %v", e.ID, ErrSourceUnavailable, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

func (e *SourceError) Is(target error) bool { return target == ErrSourceUnavailable }

// Unavailable wraps err as a SourceError for id.
func Unavailable(id string, err error) error {
	return &SourceError{ID: id, Err: err}
}

// Missing returns the missing-value marker.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether v is the missing marker or otherwise unusable.
func IsMissing(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) }

// Len returns the number of observations.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Observations)
}

// Clone returns a deep copy so cached series cannot be mutated by callers.
func (s *Series) Clone() *Series {
	if s == nil {
		return nil
	}
	obs := make([]Observation, len(s.Observations))
	copy(obs, s.Observations)
	return &Series{ID: s.ID, Observations: obs}
}

// Latest returns the most recent non-missing observation.
func (s *Series) Latest() (Observation, bool) {
	if s == nil {
		return Observation{}, false
	}
	for i := len(s.Observations) - 1; i >= 0; i-- {
		if !IsMissing(s.Observations[i].Value) {
			return s.Observations[i], true
		}
	}
	return Observation{}, false
}
