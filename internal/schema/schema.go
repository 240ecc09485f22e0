// Package schema maps the positional fields of a header line onto the
// roles a dataset needs: at most one x axis column, at most one epoch
// column, and a numeric series for everything else. The mapping is
// decided once per header and then applied to every data row that
// follows it.
package schema

import (
	"math"
	"strconv"
	"strings"

	"streamplot/internal/series"
)

// Column records which header field was claimed for a role.
type Column struct {
	Title string
	Index int
}

// Schema is the role assignment derived from one header line.
type Schema struct {
	x      *Column
	epoch  *Column
	titles []string
}

// New assigns roles to the given header fields. Each field is tested
// against the x selector first, then the epoch selector, so a field
// can satisfy at most one role. Fields claiming no role become series
// titles in header order.
func New(x, epoch Selector, fields []string) *Schema {
	s := &Schema{}
	for i, f := range fields {
		switch {
		case x.Matches(f, i):
			s.x = &Column{Title: f, Index: i}
		case epoch.Matches(f, i):
			s.epoch = &Column{Title: f, Index: i}
		default:
			s.titles = append(s.titles, f)
		}
	}
	return s
}

// EmptySet returns the dataset skeleton this schema describes: one
// empty series per retained header field, an x axis when one was
// claimed, and no epoch until a row provides one.
func (s *Schema) EmptySet() *series.SeriesSet {
	set := &series.SeriesSet{}
	if s.x != nil {
		set.X = &series.XAxis{Title: s.x.Title}
	}
	for _, t := range s.titles {
		set.Series = append(set.Series, series.Series{Title: t})
	}
	return set
}

// Slice converts one data row according to the role assignment. The x
// and epoch cells keep their raw text; every other cell is trimmed and
// parsed as a float, with NaN standing in for anything unparseable.
func (s *Schema) Slice(fields []string) series.Slice {
	var sl series.Slice
	for i, f := range fields {
		switch {
		case s.x != nil && s.x.Index == i:
			v := f
			sl.X = &v
		case s.epoch != nil && s.epoch.Index == i:
			v := f
			sl.Epoch = &v
		default:
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				v = math.NaN()
			}
			sl.Values = append(sl.Values, v)
		}
	}
	return sl
}
