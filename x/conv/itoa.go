// Package conv formats numbers into caller-supplied buffers. It exists so hot
// paths on MCU builds can build log and report lines without fmt, strconv, or
// any allocation.
package conv

// Itoa writes the base-10 representation of n into buf and returns the used
// tail slice. buf should be at least 20 bytes for a full int64; negative
// numbers are supported.
func Itoa(buf []byte, n int64) []byte {
	if len(buf) == 0 {
		return buf[:0]
	}
	i := len(buf)
	neg := n < 0
	var u uint64
	if neg {
		u = uint64(-n)
	} else {
		u = uint64(n)
	}
	// Digits are written backwards from the end of buf.
	if u == 0 {
		i--
		buf[i] = '0'
	} else {
		for u > 0 && i > 0 {
			i--
			buf[i] = byte('0' + (u % 10))
			u /= 10
		}
	}
	if neg && i > 0 {
		i--
		buf[i] = '-'
	}
	return buf[i:]
}
