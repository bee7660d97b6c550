package mathx

import "testing"

func TestClamp(t *testing.T) {
	cases := []struct {
		v, lo, hi, want int
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{11, 0, 10, 10},
		{5, 10, 0, 5}, // swapped bounds
	}
	for _, c := range cases {
		if got := Clamp(c.v, c.lo, c.hi); got != c.want {
			t.Errorf("Clamp(%d, %d, %d) = %d, want %d", c.v, c.lo, c.hi, got, c.want)
		}
	}
}

func TestMinMax(t *testing.T) {
	if got := Min(3, 7); got != 3 {
		t.Errorf("Min = %d", got)
	}
	if got := Max(3, 7); got != 7 {
		t.Errorf("Max = %d", got)
	}
	if got := Min("a", "b"); got != "a" {
		t.Errorf("Min strings = %q", got)
	}
}

func TestLerpU16(t *testing.T) {
	cases := []struct {
		a, b, t, want uint16
	}{
		{0, 100, 0, 0},
		{0, 100, 65535, 100},
		{0, 255, 32767, 127},
		{100, 0, 65535, 0}, // descending
		{50, 50, 12345, 50},
	}
	for _, c := range cases {
		if got := LerpU16(c.a, c.b, c.t); got != c.want {
			t.Errorf("LerpU16(%d, %d, %d) = %d, want %d", c.a, c.b, c.t, got, c.want)
		}
	}
}

func TestMapU16(t *testing.T) {
	cases := []struct {
		x, inMin, inMax, outMin, outMax, want uint16
	}{
		{0, 0, 100, 0, 127, 0},
		{100, 0, 100, 0, 127, 127},
		{50, 0, 100, 0, 127, 63},
		{200, 0, 100, 0, 127, 127}, // clamped above
		{5, 10, 20, 0, 127, 0},     // clamped below
		{7, 7, 7, 40, 50, 40},      // degenerate input range
	}
	for _, c := range cases {
		if got := MapU16(c.x, c.inMin, c.inMax, c.outMin, c.outMax); got != c.want {
			t.Errorf("MapU16(%d, [%d..%d] -> [%d..%d]) = %d, want %d",
				c.x, c.inMin, c.inMax, c.outMin, c.outMax, got, c.want)
		}
	}
}
