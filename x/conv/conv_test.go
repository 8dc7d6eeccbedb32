package conv

import "testing"

func TestItoa(t *testing.T) {
	var buf [20]byte
	cases := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{7, "7"},
		{-7, "-7"},
		{65535, "65535"},
		{-9223372036854775808, "-9223372036854775808"},
		{9223372036854775807, "9223372036854775807"},
	}
	for _, c := range cases {
		if got := string(Itoa(buf[:], c.n)); got != c.want {
			t.Fatalf("Itoa(%d) = %q, want %q", c.n, got, c.want)
		}
	}
}

func TestItoa_TinyBufferKeepsLowDigits(t *testing.T) {
	var buf [2]byte
	if got := string(Itoa(buf[:], -123)); got != "23" {
		t.Fatalf("Itoa into 2 bytes = %q, want %q", got, "23")
	}
	if got := string(Itoa(nil, 5)); got != "" {
		t.Fatalf("Itoa into empty buffer = %q, want empty", got)
	}
}

func TestUtoa(t *testing.T) {
	var buf [20]byte
	cases := []struct {
		n    uint64
		want string
	}{
		{0, "0"},
		{10, "10"},
		{18446744073709551615, "18446744073709551615"},
	}
	for _, c := range cases {
		if got := string(Utoa(buf[:], c.n)); got != c.want {
			t.Fatalf("Utoa(%d) = %q, want %q", c.n, got, c.want)
		}
	}
}

func TestU32Hex(t *testing.T) {
	var buf [8]byte
	if got := string(U32Hex(buf[:], 0xDEADBEEF)); got != "DEADBEEF" {
		t.Fatalf("U32Hex = %q", got)
	}
	if got := string(U32Hex(buf[:], 0)); got != "00000000" {
		t.Fatalf("U32Hex(0) = %q", got)
	}
	var short [4]byte
	if got := string(U32Hex(short[:], 1)); got != "" {
		t.Fatalf("U32Hex into short buffer = %q, want empty", got)
	}
}
