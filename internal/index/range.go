package index

import "fmt"

type boundKind uint8

const (
	unbounded boundKind = iota
	included
	excluded
)

// Range is a bound on one axis, resolved against the axis extent when a
// view is sliced. Lower bounds are inclusive; upper bounds may be open
// (exclusive), closed (inclusive) or absent.
type Range struct {
	lo, hi         int
	loKind, hiKind boundKind
}

// Full selects the whole axis (..).
func Full() Range {
	return Range{}
}

// Span selects [start, end) (start..end).
func Span(start, end int) Range {
	return Range{lo: start, hi: end, loKind: included, hiKind: excluded}
}

// Closed selects [start, end] (start..=end).
func Closed(start, end int) Range {
	return Range{lo: start, hi: end, loKind: included, hiKind: included}
}

// From selects [start, extent) (start..).
func From(start int) Range {
	return Range{lo: start, loKind: included}
}

// To selects [0, end) (..end).
func To(end int) Range {
	return Range{hi: end, hiKind: excluded}
}

// Through selects [0, end] (..=end).
func Through(end int) Range {
	return Range{hi: end, hiKind: included}
}

// At selects the single position i.
func At(i int) Range {
	return Closed(i, i)
}

// Resolve converts the range into half-open [start, end) positions within
// an axis of the given extent. Out-of-range bounds are an error, never
// clamped.
func (r Range) Resolve(extent int) (start, end int, err error) {
	switch r.loKind {
	case included:
		start = r.lo
	default:
		start = 0
	}
	switch r.hiKind {
	case included:
		end = r.hi + 1
	case excluded:
		end = r.hi
	default:
		end = extent
	}
	if start < 0 || end < start || end > extent {
		return 0, 0, fmt.Errorf("%w: range %v resolves to [%d, %d) in extent %d", ErrOutOfBounds, r, start, end, extent)
	}
	return start, end, nil
}

// String renders the range in the usual a..b notation.
func (r Range) String() string {
	lo, hi := "", ""
	if r.loKind == included {
		lo = fmt.Sprint(r.lo)
	}
	switch r.hiKind {
	case included:
		hi = "=" + fmt.Sprint(r.hi)
	case excluded:
		hi = fmt.Sprint(r.hi)
	}
	return lo + ".." + hi
}

// Bounds resolves one range per axis of size into start and end indices.
func Bounds(size Index, ranges ...Range) (start, end Index, err error) {
	if len(ranges) != size.rank {
		return Index{}, Index{}, fmt.Errorf("%w: %d ranges for rank %d", ErrRankMismatch, len(ranges), size.rank)
	}
	start = Index{rank: size.rank}
	end = Index{rank: size.rank}
	for axis, r := range ranges {
		s, e, err := r.Resolve(size.dims[axis])
		if err != nil {
			return Index{}, Index{}, fmt.Errorf("axis %d: %w", axis, err)
		}
		start.dims[axis] = s
		end.dims[axis] = e
	}
	return start, end, nil
}
