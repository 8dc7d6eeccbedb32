//go:build !rp2040 && !rp2350

// Package strconvx is the integer subset of strconv shared by host and MCU
// builds. Host builds delegate straight to the standard library; the MCU
// build carries a small hand-rolled implementation with matching semantics.
// The calibration stack is integer-only, so there is no float surface.
package strconvx

import "strconv"

func Itoa(i int) string                    { return strconv.Itoa(i) }
func Atoi(s string) (int, error)           { return strconv.Atoi(s) }
func FormatInt(i int64, base int) string   { return strconv.FormatInt(i, base) }
func FormatUint(u uint64, base int) string { return strconv.FormatUint(u, base) }
func ParseInt(s string, base, bitSize int) (int64, error) {
	return strconv.ParseInt(s, base, bitSize)
}
func ParseUint(s string, base, bitSize int) (uint64, error) {
	return strconv.ParseUint(s, base, bitSize)
}
