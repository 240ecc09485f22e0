// Package series holds the in-memory containers the chart renderer
// consumes: named numeric series grouped into sets, plus the slice
// produced for each incoming data row.
package series

import "math"

// Series is a named, ordered sequence of numeric values. Invalid or
// missing cells are carried as NaN so a bad value never shifts the
// points that follow it.
type Series struct {
	Title  string
	Values []float64
}

// Append adds one value to the series.
func (s *Series) Append(v float64) {
	s.Values = append(s.Values, v)
}

// Bounds returns the smallest and largest finite values in the series.
// ok is false when the series holds no finite value at all.
func (s *Series) Bounds() (lo, hi float64, ok bool) {
	for _, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if !ok {
			lo, hi, ok = v, v, true
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, ok
}

// XAxis is the optional axis column of a set. Values stay raw text:
// timestamps, labels and numbers are all rendered as given.
type XAxis struct {
	Title  string
	Values []string
}

// Slice is one parsed data row: the raw x and epoch cells when the
// schema claimed those columns, and the remaining cells as numbers in
// header order. Nil means the row had no such cell, which is distinct
// from an empty one.
type Slice struct {
	X      *string
	Epoch  *string
	Values []float64
}

// SeriesSet is one dataset: everything between two batch boundaries,
// or a whole snapshot. Epoch stays nil until a row carries one.
type SeriesSet struct {
	Epoch  *string
	X      *XAxis
	Series []Series
}

// AppendSlice folds one row into the set. Values are appended
// positionally; values beyond the last series are dropped, short rows
// leave the remaining series untouched. The x cell is appended only
// when the set has an x axis, and the epoch label follows the most
// recent row that carried one.
func (ss *SeriesSet) AppendSlice(sl Slice) {
	if sl.Epoch != nil {
		ss.Epoch = sl.Epoch
	}
	if ss.X != nil && sl.X != nil {
		ss.X.Values = append(ss.X.Values, *sl.X)
	}
	for i, v := range sl.Values {
		if i >= len(ss.Series) {
			break
		}
		ss.Series[i].Append(v)
	}
}

// Len reports the length of the longest series in the set.
func (ss *SeriesSet) Len() int {
	n := 0
	for i := range ss.Series {
		if l := len(ss.Series[i].Values); l > n {
			n = l
		}
	}
	return n
}

// Window returns a view of the trailing n points of the set. The view
// shares backing arrays with the receiver; the receiver itself is
// returned when it already fits.
func (ss *SeriesSet) Window(n int) *SeriesSet {
	if n < 0 {
		n = 0
	}
	if ss.Len() <= n {
		return ss
	}
	out := &SeriesSet{Epoch: ss.Epoch}
	if ss.X != nil {
		xv := ss.X.Values
		if len(xv) > n {
			xv = xv[len(xv)-n:]
		}
		out.X = &XAxis{Title: ss.X.Title, Values: xv}
	}
	out.Series = make([]Series, len(ss.Series))
	for i := range ss.Series {
		v := ss.Series[i].Values
		if len(v) > n {
			v = v[len(v)-n:]
		}
		out.Series[i] = Series{Title: ss.Series[i].Title, Values: v}
	}
	return out
}

// Bounds returns the finite value range across every series in the set.
func (ss *SeriesSet) Bounds() (lo, hi float64, ok bool) {
	for i := range ss.Series {
		slo, shi, sok := ss.Series[i].Bounds()
		if !sok {
			continue
		}
		if !ok {
			lo, hi, ok = slo, shi, true
			continue
		}
		if slo < lo {
			lo = slo
		}
		if shi > hi {
			hi = shi
		}
	}
	return lo, hi, ok
}
