package mathx

import "testing"

func TestClampAndBetween(t *testing.T) {
	if got := Clamp(15, 0, 10); got != 10 {
		t.Fatalf("Clamp high = %d", got)
	}
	if got := Clamp(-3, 0, 10); got != 0 {
		t.Fatalf("Clamp low = %d", got)
	}
	// Swapped bounds still clamp into the same interval.
	if got := Clamp(5, 10, 1); got != 5 {
		t.Fatalf("Clamp swapped = %d", got)
	}
	if !Between(uint16(409), 409, 1228) || !Between(uint16(700), 1228, 409) {
		t.Fatal("Between should be order-insensitive")
	}
	if Between(uint16(408), 409, 1228) {
		t.Fatal("Between below lo")
	}
}

func TestMinMaxAbs(t *testing.T) {
	if Min(3, 9) != 3 || Max(3, 9) != 9 {
		t.Fatal("Min/Max")
	}
	if Abs(-42) != 42 || Abs(int32(7)) != 7 {
		t.Fatal("Abs")
	}
}

func TestIntDiv(t *testing.T) {
	if got := CeilDiv(uint32(1000), 128); got != 8 {
		t.Fatalf("CeilDiv(1000,128) = %d", got)
	}
	if got := CeilDiv(uint32(1000), 250); got != 4 {
		t.Fatalf("CeilDiv(1000,250) = %d", got)
	}
	if CeilDiv(uint32(5), 0) != 0 || RoundDiv(uint32(5), 0) != 0 {
		t.Fatal("zero divisor yields 0")
	}
	if got := RoundDiv(uint32(7), 2); got != 4 {
		t.Fatalf("RoundDiv(7,2) = %d", got)
	}
	if got := RoundDiv(uint32(5), 2); got != 3 {
		t.Fatalf("RoundDiv(5,2) = %d", got)
	}
}

func TestMapU16(t *testing.T) {
	cases := []struct {
		x, inMin, inMax, outMin, outMax, want uint16
	}{
		{1650, 0, 3300, 0, 65535, 32767},
		{0, 0, 3300, 0, 65535, 0},
		{3300, 0, 3300, 0, 65535, 65535},
		{5, 10, 20, 0, 100, 0},    // below source range clamps
		{25, 10, 20, 0, 100, 100}, // above source range clamps
		{7, 7, 7, 40, 50, 40},     // degenerate source range
	}
	for _, c := range cases {
		if got := MapU16(c.x, c.inMin, c.inMax, c.outMin, c.outMax); got != c.want {
			t.Fatalf("MapU16(%d,[%d..%d]->[%d..%d]) = %d, want %d",
				c.x, c.inMin, c.inMax, c.outMin, c.outMax, got, c.want)
		}
	}
}
