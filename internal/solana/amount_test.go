package solana

import "testing"

func TestParseUSDC(t *testing.T) {
	tests := []struct {
		in       string
		expected uint64
		wantErr  bool
	}{
		{"5", 5_000_000, false},
		{"5.0", 5_000_000, false},
		{"0.5", 500_000, false},
		{"0.000001", 1, false},
		{"4.999999", 4_999_999, false},
		{"0", 0, false},
		{" 10 ", 10_000_000, false},
		{"123456.789", 123_456_789_000, false},

		// Extra fractional digits truncate, never round up
		{"4.9999999", 4_999_999, false},
		{"0.0000009", 0, false},

		{"", 0, true},
		{"abc", 0, true},
		{"1.2.3", 0, true},
		{"-5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseUSDC(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseUSDC(%q) = %d, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseUSDC(%q) error: %v", tt.in, err)
			}
			if got != tt.expected {
				t.Errorf("ParseUSDC(%q) = %d, want %d", tt.in, got, tt.expected)
			}
		})
	}
}

func TestFormatUSDC(t *testing.T) {
	tests := []struct {
		in       uint64
		expected string
	}{
		{5_000_000, "5"},
		{4_999_999, "4.999999"},
		{500_000, "0.5"},
		{1, "0.000001"},
		{0, "0"},
		{123_456_789_000, "123456.789"},
	}

	for _, tt := range tests {
		if got := FormatUSDC(tt.in); got != tt.expected {
			t.Errorf("FormatUSDC(%d) = %q, want %q", tt.in, got, tt.expected)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, raw := range []uint64{0, 1, 999_999, 1_000_000, 4_999_999, 50_000_000} {
		parsed, err := ParseUSDC(FormatUSDC(raw))
		if err != nil {
			t.Fatalf("round trip of %d: %v", raw, err)
		}
		if parsed != raw {
			t.Errorf("round trip of %d produced %d", raw, parsed)
		}
	}
}
