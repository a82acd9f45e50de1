package jflow

import "testing"

func TestParseDigits(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want float64
	}{
		{"0", 0},
		{"3.14", 3.14},
		{"1e10", 1e10},
		{"2.5e-3", 2.5e-3},
	}
	for _, c := range cases {
		got, err := parseDigits([]byte(c.in))
		if err != nil {
			t.Errorf("parseDigits(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("parseDigits(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseInt64(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in       string
		negative bool
		want     int64
		ok       bool
	}{
		{"0", false, 0, true},
		{"0", true, 0, true},
		{"42", false, 42, true},
		{"42", true, -42, true},
		{"9223372036854775807", false, 9223372036854775807, true},
		{"9223372036854775808", true, -9223372036854775808, true},
		{"9223372036854775808", false, 0, false},
		{"18446744073709551615", false, 0, false},
	}
	for _, c := range cases {
		got, ok := parseInt64([]byte(c.in), c.negative)
		if ok != c.ok {
			t.Errorf("parseInt64(%q, %v) ok = %v, want %v", c.in, c.negative, ok, c.ok)
			continue
		}
		if ok && got != c.want {
			t.Errorf("parseInt64(%q, %v) = %v, want %v", c.in, c.negative, got, c.want)
		}
	}
}

func TestParseUint64(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want uint64
		ok   bool
	}{
		{"0", 0, true},
		{"18446744073709551615", 18446744073709551615, true},
		{"18446744073709551616", 0, false},
	}
	for _, c := range cases {
		got, ok := parseUint64([]byte(c.in))
		if ok != c.ok {
			t.Errorf("parseUint64(%q) ok = %v, want %v", c.in, ok, c.ok)
			continue
		}
		if ok && got != c.want {
			t.Errorf("parseUint64(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestNumberBufPrecision(t *testing.T) {
	t.Parallel()
	var n numberBuf
	n.writeByte('3')
	n.markPrecision()
	n.writeByte('.')
	n.writeByte('1')
	n.incPrecision()
	n.writeByte('4')
	n.incPrecision()
	if n.precision != 3 {
		t.Errorf("precision = %d, want 3", n.precision)
	}
	if n.len() != 4 {
		t.Errorf("len = %d, want 4", n.len())
	}
	n.reset()
	if n.len() != 0 || n.precision != 0 || n.negative {
		t.Errorf("reset left stale state: %+v", n)
	}
}
