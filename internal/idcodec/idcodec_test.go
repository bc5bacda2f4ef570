package idcodec

import "testing"

// T4: extractId round-trips for integers and rejects malformed strings.
func TestExtractIDRoundTrip(t *testing.T) {
	for _, n := range []int64{0, 1, 42, 123456789} {
		link := FormatLink("albums", n)
		got, ok := ExtractID(link)
		if !ok {
			t.Fatalf("ExtractID(%q) failed to parse", link)
		}
		if got != n {
			t.Fatalf("ExtractID(%q) = %d, want %d", link, got, n)
		}
	}
}

func TestExtractIDBareForms(t *testing.T) {
	cases := []struct {
		in   any
		want int64
		ok   bool
	}{
		{"123", 123, true},
		{123, 123, true},
		{int64(123), 123, true},
		{float64(123), 123, true},
		{"/tracks/456", 456, true},
		{"/tracks/456/", 0, false},
		{"Some point in the 21st Century", 0, false},
		{"", 0, false},
		{"abc/def", 0, false},
		{float64(1.5), 0, false},
		{nil, 0, false},
	}
	for _, c := range cases {
		got, ok := ExtractID(c.in)
		if ok != c.ok {
			t.Fatalf("ExtractID(%v) ok = %v, want %v", c.in, ok, c.ok)
		}
		if ok && got != c.want {
			t.Fatalf("ExtractID(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}
