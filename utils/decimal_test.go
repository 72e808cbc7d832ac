package utils

import (
	"encoding/json"
	"testing"
)

func TestParseAmount_AcceptsFormattedStrings(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"20000", "20000"},
		{"20,000", "20000"},
		{"THB 20,000", "20000"},
		{"THB -20,000", "-20000"},
		{"฿1,234.50", "1234.5"},
		{"  baht 5350  ", "5350"},
	}
	for _, tc := range cases {
		d, err := ParseAmount(tc.in)
		if err != nil {
			t.Fatalf("ParseAmount(%q) error: %v", tc.in, err)
		}
		if d.String() != tc.expected {
			t.Fatalf("ParseAmount(%q) expected %s, got %s", tc.in, tc.expected, d.String())
		}
	}
}

func TestParseAmount_RejectsEmpty(t *testing.T) {
	for _, in := range []interface{}{"", "THB", "  ", true} {
		if _, err := ParseAmount(in); err == nil {
			t.Fatalf("ParseAmount(%v) expected error", in)
		}
	}
}

func TestParseAmount_JSONNumber(t *testing.T) {
	d, err := ParseAmount(json.Number("3500.25"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "3500.25" {
		t.Fatalf("expected 3500.25, got %s", d.String())
	}
}
