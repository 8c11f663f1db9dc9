// Package sortstate holds the "sort by field X, ascending/descending" selection that
// drives list ordering. It is generic over the field set so new sortable lists only
// declare their fields.
package sortstate

import (
	"encoding/json"
	"slices"
)

// Indicator is the direction hint rendered next to a column header.
type Indicator string

const (
	IndicatorNone       Indicator = ""
	IndicatorAscending  Indicator = "chevron.up"
	IndicatorDescending Indicator = "chevron.down"
)

// State is the active sort field and direction. The zero value selects the zero field ascending=false;
// prefer New.
type State[F comparable] struct {
	field     F
	ascending bool
}

func New[F comparable](field F, ascending bool) State[F] {
	return State[F]{field: field, ascending: ascending}
}

func (s State[F]) Field() F        { return s.field }
func (s State[F]) Ascending() bool { return s.ascending }

// ToggleOrSelect flips the direction when f is already active. Selecting a different
// field always starts ascending, whatever the previous direction was.
func (s *State[F]) ToggleOrSelect(f F) {
	if f == s.field {
		s.ascending = !s.ascending
		return
	}
	s.field = f
	s.ascending = true
}

func (s State[F]) IsSelected(f F) bool {
	return s.field == f
}

// Icon returns a direction indicator for the active field and IndicatorNone otherwise.
func (s State[F]) Icon(f F) Indicator {
	if !s.IsSelected(f) {
		return IndicatorNone
	}
	if s.ascending {
		return IndicatorAscending
	}
	return IndicatorDescending
}

// Direct applies the direction to an ascending comparison result.
func (s State[F]) Direct(c int) int {
	if s.ascending {
		return c
	}
	return -c
}

// Sort returns a stably sorted copy of rows. Fields without a comparator leave the order untouched.
func Sort[R any, F comparable](rows []R, s State[F], comparators map[F]func(a, b R) int) []R {
	out := slices.Clone(rows)
	if out == nil {
		out = []R{}
	}
	cmp, ok := comparators[s.field]
	if !ok {
		return out
	}
	slices.SortStableFunc(out, func(a, b R) int {
		return s.Direct(cmp(a, b))
	})
	return out
}

type wireState[F comparable] struct {
	Field     F    `json:"field"`
	Ascending bool `json:"ascending"`
}

// MarshalJSON persists field and direction only.
func (s State[F]) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireState[F]{Field: s.field, Ascending: s.ascending})
}

func (s *State[F]) UnmarshalJSON(b []byte) error {
	var w wireState[F]
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	s.field = w.Field
	s.ascending = w.Ascending
	return nil
}
