package analysis

import (
	"math"
	"testing"
)

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "₹0"},
		{999, "₹999"},
		{999.5, "₹999.5"},
		{12.3456, "₹12.346"},
		{1000, "₹1.0K"},
		{1049, "₹1.0K"},
		{99999, "₹100.0K"},
		{100000, "₹1.00 lakhs"},
		{250000, "₹2.50 lakhs"},
		{12345678, "₹123.46 lakhs"},
		{-500, "₹-500"},
		{-150000, "₹-1,50,000"},
		{-12345678.9, "₹-1,23,45,678.9"},
		{math.NaN(), "₹NaN"},
	}
	for _, c := range cases {
		if got := FormatCurrency(c.in); got != c.want {
			t.Errorf("FormatCurrency(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestGroupIndian(t *testing.T) {
	cases := map[string]string{
		"1":          "1",
		"123":        "123",
		"1234":       "1,234",
		"12345":      "12,345",
		"123456":     "1,23,456",
		"1234567.25": "12,34,567.25",
		"-1000":      "-1,000",
	}
	for in, want := range cases {
		if got := groupIndian(in); got != want {
			t.Errorf("groupIndian(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{1234, "1,234"},
		{1234.5, "1,234.5"},
		{1234.567, "1,234.57"},
		{-9876543.21, "-9,876,543.21"},
		{0.004, "0"},
	}
	for _, c := range cases {
		if got := FormatNumber(c.in); got != c.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatPercentAndValue(t *testing.T) {
	if got := FormatPercent(12.345); got != "12.3%" {
		t.Fatalf("FormatPercent: %q", got)
	}
	if got := FormatPercent(math.Inf(1)); got != "Infinity%" {
		t.Fatalf("FormatPercent(Inf): %q", got)
	}
	if got := FormatValue(TypeCurrency, 150000); got != "₹1.50 lakhs" {
		t.Fatalf("currency: %q", got)
	}
	if got := FormatValue(TypePercentage, 7); got != "7.0%" {
		t.Fatalf("percentage: %q", got)
	}
	if got := FormatValue(TypeNumber, 7); got != "7" {
		t.Fatalf("number: %q", got)
	}
}
