package interp

import "errors"

// Construction errors. Calibration data is generated once and checked here;
// any of these means the data is wrong, not that the input signal is.
var (
	ErrZeroReference = errors.New("interp: zero full-scale reference")
	ErrPrecision     = errors.New("interp: precision must be 1..32 bits")
	ErrRawOverflow   = errors.New("interp: raw code exceeds word range")
)

// Point is a calibration point in physical units: the measured quantity at
// this point (same unit as Config.MaxVoltage) and the output value the table
// should report there.
type Point struct {
	Voltage uint32
	Value   uint32
}

// Config describes a calibration table in physical units. BuildTable turns it
// into raw-code entries for a given ADC width.
type Config struct {
	// MaxVoltage is the physical quantity at the ADC's full-scale code,
	// e.g. 3300 for a 3.3 V reference measured in mV.
	MaxVoltage uint32
	// Precision is the ADC resolution in bits (1..32).
	Precision uint32
	// Points are the calibration points, in ascending Voltage order.
	Points []Point
}

// Validate checks the fields BuildEntry divides and shifts by.
func (c Config) Validate() error {
	if c.MaxVoltage == 0 {
		return ErrZeroReference
	}
	if c.Precision == 0 || c.Precision > 32 {
		return ErrPrecision
	}
	return nil
}

// BuildEntry quantizes one calibration point:
//
//	full_scale = 1 << precision
//	raw        = voltage * full_scale / maxVoltage   (truncating)
//
// The multiply runs in 64-bit, so any uint32 inputs are safe; the result must
// still fit the target word type W or ErrRawOverflow is returned. Note that
// voltage == maxVoltage yields full_scale itself, one past the highest code
// the converter can produce, which is fine as a table endpoint.
func BuildEntry[W Word](maxVoltage, precision, voltage, value uint32) (Entry[W], error) {
	if maxVoltage == 0 {
		return Entry[W]{}, ErrZeroReference
	}
	if precision == 0 || precision > 32 {
		return Entry[W]{}, ErrPrecision
	}
	fullScale := uint64(1) << precision
	code := uint64(voltage) * fullScale / uint64(maxVoltage)
	if code > uint64(^W(0)) {
		return Entry[W]{}, ErrRawOverflow
	}
	return Entry[W]{Raw: W(code), Value: value}, nil
}

// BuildTable builds and validates a complete table from cfg. Ascending
// voltages quantize to non-decreasing codes, so a sorted Config always
// produces a valid table; an unsorted one surfaces as ErrUnsorted.
func BuildTable[W Word](cfg Config) (Table[W], error) {
	if err := cfg.Validate(); err != nil {
		return Table[W]{}, err
	}
	entries := make([]Entry[W], len(cfg.Points))
	for i, p := range cfg.Points {
		e, err := BuildEntry[W](cfg.MaxVoltage, cfg.Precision, p.Voltage, p.Value)
		if err != nil {
			return Table[W]{}, err
		}
		entries[i] = e
	}
	return New(entries)
}
