// Package interp converts raw ADC codes into calibrated output values by
// piecewise-linear interpolation over an ordered calibration table.
//
// A table is a fixed sequence of (raw code, value) pairs, sorted by raw code.
// Build one from physical calibration points and query it with codes straight
// off the converter:
//
//	table, err := interp.BuildTable[uint16](interp.Config{
//		MaxVoltage: 1000, // full-scale, in the unit the points use (here mV)
//		Precision:  12,   // ADC bits
//		Points: []interp.Point{
//			{Voltage: 100, Value: 40},
//			{Voltage: 200, Value: 30},
//			{Voltage: 300, Value: 10},
//		},
//	})
//	...
//	if v, ok := table.Lookup(raw); ok {
//		// v is the calibrated value at raw
//	}
//
// A code outside the table's span reports ok=false; that is a normal result,
// not an error, and no substitute value is produced. All arithmetic is
// integer-only with truncating division, so results are deterministic on
// targets without an FPU.
//
// Tables never allocate after construction and are immutable, so a single
// table may be shared by concurrent readers without locking.
package interp

// Word is the set of raw-code widths a table can store. Codes are widened to
// uint32 for arithmetic, which bounds the usable ADC precision at 32 bits.
type Word interface {
	~uint8 | ~uint16 | ~uint32
}

// lerp interpolates between (x0,y0) and (x1,y1) at x, with x0 <= x <= x1 and
// x0 < x1. Division truncates toward zero. The descending branch keeps the
// subtraction unsigned, which makes the two branches round differently for
// non-exact points; existing calibration data depends on that exact
// behaviour.
func lerp(x0, x1, y0, y1, x uint32) uint32 {
	if y0 > y1 {
		return y0 - (x-x0)*(y0-y1)/(x1-x0)
	}
	return y0 + (x-x0)*(y1-y0)/(x1-x0)
}
