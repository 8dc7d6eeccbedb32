package interp

import (
	"errors"

	"adccal-go/x/mathx"
)

// ErrUnsorted is returned by New when entries are not in non-decreasing
// raw-code order.
var ErrUnsorted = errors.New("interp: table not sorted by raw code")

// Entry is one calibration point: the ADC code Raw maps to the calibrated
// output Value.
type Entry[W Word] struct {
	Raw   W
	Value uint32
}

// Table is an immutable, ordered calibration table. The zero value is an
// empty table: every Lookup misses and MinValue/MaxValue panic.
type Table[W Word] struct {
	entries []Entry[W]
}

// New wraps entries after checking they are sorted by Raw in non-decreasing
// order (equal neighbours are allowed and act as a step). The table takes
// ownership of the slice; callers must not modify it afterwards.
func New[W Word](entries []Entry[W]) (Table[W], error) {
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Raw > entries[i].Raw {
			return Table[W]{}, ErrUnsorted
		}
	}
	return Table[W]{entries: entries}, nil
}

// NewUnchecked wraps entries without the ordering scan. Use it only for
// tables proven sorted elsewhere (constants, BuildTable output): an unsorted
// table makes Lookup results meaningless, and nothing re-checks per query.
func NewUnchecked[W Word](entries []Entry[W]) Table[W] {
	return Table[W]{entries: entries}
}

// Len returns the number of calibration points.
func (t Table[W]) Len() int { return len(t.entries) }

// Lookup returns the calibrated value for raw, or ok=false when raw falls
// outside the table (below the first code, above the last, or fewer than two
// entries). The scan is linear: tables are short and fixed, and the first
// (lowest-index) bracketing interval wins, so codes shared by several entries
// resolve to the earliest pair.
func (t Table[W]) Lookup(raw W) (value uint32, ok bool) {
	for i := 0; i+1 < len(t.entries); i++ {
		lo, hi := t.entries[i], t.entries[i+1]
		if !mathx.Between(raw, lo.Raw, hi.Raw) {
			continue
		}
		x0, x1 := uint32(lo.Raw), uint32(hi.Raw)
		if x0 == x1 {
			// Zero-width interval from duplicate codes: the shared point maps
			// to the left value, no division.
			return lo.Value, true
		}
		return lerp(x0, x1, lo.Value, hi.Value, uint32(raw)), true
	}
	return 0, false
}

// MinValue returns the smaller of the first and last entries' values. The
// table need not be monotonic in value; intermediate entries do not count.
// Panics on an empty table.
func (t Table[W]) MinValue() uint32 {
	return mathx.Min(t.firstValue(), t.lastValue())
}

// MaxValue returns the larger of the first and last entries' values.
// Panics on an empty table.
func (t Table[W]) MaxValue() uint32 {
	return mathx.Max(t.firstValue(), t.lastValue())
}

func (t Table[W]) firstValue() uint32 {
	if len(t.entries) == 0 {
		panic("interp: value range of an empty table")
	}
	return t.entries[0].Value
}

func (t Table[W]) lastValue() uint32 {
	if len(t.entries) == 0 {
		panic("interp: value range of an empty table")
	}
	return t.entries[len(t.entries)-1].Value
}
