package employee

import (
	"fmt"
	"strconv"
	"strings"
)

const CodePrefix = "EMP"

// ParseCodeNumber returns the numeric suffix of an EMP code, or 0 when the
// code does not carry one.
func ParseCodeNumber(code string) int {
	suffix, ok := strings.CutPrefix(strings.TrimSpace(code), CodePrefix)
	if !ok || suffix == "" {
		return 0
	}
	n, err := strconv.Atoi(suffix)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// FormatCode pads to three digits; larger numbers keep all their digits.
func FormatCode(n int) string {
	return fmt.Sprintf("%s%03d", CodePrefix, n)
}

func NextCode(maxNumber int) string {
	if maxNumber < 0 {
		maxNumber = 0
	}
	return FormatCode(maxNumber + 1)
}
