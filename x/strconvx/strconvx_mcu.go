//go:build rp2040 || rp2350

package strconvx

import "adccal-go/x/conv"

// Semantics follow strconv: base 0 infers from the 0x/0b/0o prefix (a bare
// leading zero still means octal), and out-of-range values come back clamped
// with a range error rather than silently truncated.

const intSize = 32 << (^uint(0) >> 63)

const maxUint64 = 1<<64 - 1

type numError struct{ msg string }

func (e *numError) Error() string { return e.msg }

var (
	errSyntax = &numError{"invalid syntax"}
	errRange  = &numError{"value out of range"}
)

func Itoa(i int) string {
	var b [20]byte
	return string(conv.Itoa(b[:], int64(i)))
}

func Atoi(s string) (int, error) {
	v, err := ParseInt(s, 10, 0)
	return int(v), err
}

func FormatInt(i int64, base int) string {
	if i >= 0 {
		return FormatUint(uint64(i), base)
	}
	return "-" + FormatUint(uint64(-i), base)
}

func FormatUint(u uint64, base int) string {
	if base < 2 || base > 36 {
		base = 10
	}
	if base == 10 {
		var b [20]byte
		return string(conv.Utoa(b[:], u))
	}
	const digits = "0123456789abcdefghijklmnopqrstuvwxyz"
	var buf [64]byte
	i := len(buf)
	for {
		i--
		buf[i] = digits[u%uint64(base)]
		u /= uint64(base)
		if u == 0 {
			break
		}
	}
	return string(buf[i:])
}

func ParseInt(s string, base, bitSize int) (int64, error) {
	neg := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	u, err := ParseUint(s, base, 64)
	if err != nil && err != errRange {
		return 0, err
	}
	if bitSize == 0 {
		bitSize = intSize
	}
	cutoff := uint64(1) << uint(bitSize-1)
	if !neg && u >= cutoff {
		return int64(cutoff - 1), errRange
	}
	if neg && u > cutoff {
		return -int64(cutoff), errRange
	}
	if neg {
		return -int64(u), nil
	}
	return int64(u), nil
}

func ParseUint(s string, base, bitSize int) (uint64, error) {
	if base == 0 {
		base, s = baseFromPrefix(s)
	}
	if base < 2 || base > 36 || len(s) == 0 {
		return 0, errSyntax
	}
	if bitSize == 0 {
		bitSize = intSize
	}
	var max uint64 = maxUint64
	if bitSize < 64 {
		max = 1<<uint(bitSize) - 1
	}
	cutoff := maxUint64/uint64(base) + 1

	var v uint64
	for i := 0; i < len(s); i++ {
		d, ok := digitVal(s[i])
		if !ok || int(d) >= base {
			return 0, errSyntax
		}
		if v >= cutoff {
			return max, errRange
		}
		v *= uint64(base)
		v1 := v + uint64(d)
		if v1 < v || v1 > max {
			return max, errRange
		}
		v = v1
	}
	return v, nil
}

func baseFromPrefix(s string) (int, string) {
	if len(s) >= 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			return 16, s[2:]
		case 'b', 'B':
			return 2, s[2:]
		case 'o', 'O':
			return 8, s[2:]
		}
		return 8, s
	}
	return 10, s
}

func digitVal(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'z':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'Z':
		return c - 'A' + 10, true
	}
	return 0, false
}
