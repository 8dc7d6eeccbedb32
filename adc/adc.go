// Package adc provides the analog sampling sources the firmware feeds into
// calibration tables. RP2-family builds get a Pin wrapping the on-chip
// converter; host builds get a SimPin whose level tests and demos set
// directly. Both satisfy the one-shot source shape the interp package
// consumes: Sample() (uint16, error).
//
// Samples follow the TinyGo convention: 16-bit left-aligned regardless of the
// converter's native precision. Native recovers the native-width code a
// calibration table is built against.
package adc

// Native narrows a left-aligned 16-bit sample to the converter's native
// width. bits outside 1..15 return the sample unchanged.
func Native(sample uint16, bits uint32) uint16 {
	if bits == 0 || bits >= 16 {
		return sample
	}
	return sample >> (16 - bits)
}
