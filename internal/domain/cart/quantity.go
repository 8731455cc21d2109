package cart

import (
	"strconv"
	"strings"

	"github.com/go-faster/errors"
)

// ParseQuantity coerces user input into an integer quantity. It reads the
// leading integer of s (so "3", " 3 " and "3.7" all yield 3) and falls back
// to 1 when no integer can be read. The result saturates at ±MaxQuantity;
// SetQuantity applies the floor of 1.
func ParseQuantity(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 1
	}
	// Out-of-range input comes back saturated to the int bounds.
	n, err := strconv.Atoi(s[:end])
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 1
	}
	return min(max(n, -MaxQuantity), MaxQuantity)
}
