package employee

import "testing"

func TestParseCodeNumber(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"EMP001", 1},
		{"EMP042", 42},
		{"EMP1000", 1000},
		{"", 0},
		{"EMP", 0},
		{"EMPabc", 0},
		{"XYZ007", 0},
		{"EMP-3", 0},
	}
	for _, tc := range tests {
		if got := ParseCodeNumber(tc.code); got != tc.want {
			t.Fatalf("ParseCodeNumber(%q) = %d, want %d", tc.code, got, tc.want)
		}
	}
}

func TestNextCode(t *testing.T) {
	tests := []struct {
		max  int
		want string
	}{
		{0, "EMP001"},
		{1, "EMP002"},
		{41, "EMP042"},
		{999, "EMP1000"},
		{-5, "EMP001"},
	}
	for _, tc := range tests {
		if got := NextCode(tc.max); got != tc.want {
			t.Fatalf("NextCode(%d) = %q, want %q", tc.max, got, tc.want)
		}
	}
}

func TestNextCodeAfterUnparseableCode(t *testing.T) {
	if got := NextCode(ParseCodeNumber("legacy")); got != "EMP001" {
		t.Fatalf("expected EMP001, got %s", got)
	}
}
