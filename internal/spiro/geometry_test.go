package spiro

import (
	"math"
	"testing"
)

func TestAdvance_AngleZero(t *testing.T) {
	spin, offset := Advance(0.0, 150.0, 55.0)
	if spin != 0.0 {
		t.Fatalf("Advance(0, 150, 55) spin = %v; want 0", spin)
	}
	if offset != (Vec2{X: 95.0, Y: 0.0}) {
		t.Fatalf("Advance(0, 150, 55) offset = %+v; want {95 0}", offset)
	}
}

func TestAdvance_KnownValues(t *testing.T) {
	tcs := []struct {
		angle, fixed, rotating float64
	}{
		{angle: 1, fixed: 100, rotating: 50},
		{angle: -2.5, fixed: 75, rotating: 27.5},
		{angle: 123.456, fixed: 128, rotating: 1},
		{angle: 0.1, fixed: 10, rotating: 40},
	}

	for _, tc := range tcs {
		large := tc.angle * tc.rotating / tc.fixed
		wantSpin := tc.angle + large
		wantOffset := Vec2{
			X: math.Cos(large) * (tc.fixed - tc.rotating),
			Y: math.Sin(large) * (tc.fixed - tc.rotating),
		}

		spin, offset := Advance(tc.angle, tc.fixed, tc.rotating)
		if spin != wantSpin {
			t.Fatalf("Advance(%v, %v, %v) spin = %v; want %v", tc.angle, tc.fixed, tc.rotating, spin, wantSpin)
		}
		if offset != wantOffset {
			t.Fatalf("Advance(%v, %v, %v) offset = %+v; want %+v", tc.angle, tc.fixed, tc.rotating, offset, wantOffset)
		}
	}
}

func TestAdvance_Deterministic(t *testing.T) {
	for i := 0; i < 100; i++ {
		angle := float64(i) * 0.37
		s1, o1 := Advance(angle, 150, 55)
		s2, o2 := Advance(angle, 150, 55)
		if math.Float64bits(s1) != math.Float64bits(s2) ||
			math.Float64bits(o1.X) != math.Float64bits(o2.X) ||
			math.Float64bits(o1.Y) != math.Float64bits(o2.Y) {
			t.Fatalf("Advance(%v) not bit-identical across calls", angle)
		}
	}
}

func TestAdvance_EqualRadiiCollapseToCentre(t *testing.T) {
	for _, angle := range []float64{0, 0.5, math.Pi, -7, 1e6} {
		_, offset := Advance(angle, 64, 64)
		if offset.Length() != 0 {
			t.Fatalf("Advance(%v, 64, 64) offset = %+v; want zero length", angle, offset)
		}
	}
}

func TestParseColor(t *testing.T) {
	tcs := []struct {
		in   string
		want RGBA
		ok   bool
	}{
		{in: "#d97706", want: RGBA{R: 0xd9, G: 0x77, B: 0x06, A: 0xff}, ok: true},
		{in: "9333ea80", want: RGBA{R: 0x93, G: 0x33, B: 0xea, A: 0x80}, ok: true},
		{in: "#fff", ok: false},
		{in: "#gg0000", ok: false},
	}

	for _, tc := range tcs {
		got, err := ParseColor(tc.in)
		if (err == nil) != tc.ok {
			t.Fatalf("ParseColor(%q) err=%v; want ok=%v", tc.in, err, tc.ok)
		}
		if tc.ok && got != tc.want {
			t.Fatalf("ParseColor(%q) = %+v; want %+v", tc.in, got, tc.want)
		}
	}
}
