package interp

// Source is the one-shot sampling collaborator a Reader draws codes from.
// Each call performs exactly one acquisition. Implementations may block or
// fail transiently; the Reader never retries, averages, or buffers.
type Source[W Word] interface {
	Sample() (W, error)
}

// Reader owns a sampling source together with the table that calibrates it.
// It is the convenience composition for callers who want "give me the
// calibrated value" as a single call; the table alone serves callers who
// already have a raw code in hand.
type Reader[W Word] struct {
	src   Source[W]
	table Table[W]
}

// NewReader binds src to table. The Reader owns src until Free is called.
func NewReader[W Word](src Source[W], table Table[W]) *Reader[W] {
	return &Reader[W]{src: src, table: table}
}

// Read acquires one sample and looks it up. A sampling failure is returned
// unchanged; ok=false reports an out-of-range code, which is not an error.
func (r *Reader[W]) Read() (value uint32, ok bool, err error) {
	raw, err := r.src.Sample()
	if err != nil {
		return 0, false, err
	}
	value, ok = r.table.Lookup(raw)
	return value, ok, nil
}

// Table returns the calibration table for direct queries.
func (r *Reader[W]) Table() Table[W] { return r.table }

// MinValue reports the table's low value endpoint. Panics on an empty table.
func (r *Reader[W]) MinValue() uint32 { return r.table.MinValue() }

// MaxValue reports the table's high value endpoint. Panics on an empty table.
func (r *Reader[W]) MaxValue() uint32 { return r.table.MaxValue() }

// Free releases ownership of the source and returns it to the caller.
// The Reader must not be used after Free.
func (r *Reader[W]) Free() Source[W] {
	src := r.src
	r.src = nil
	return src
}
