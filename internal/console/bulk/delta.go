package bulk

import (
	"strconv"
	"strings"
)

// ParseDelta parses a quantity change. Surrounding whitespace and thousands
// separators are removed, then the value must be an optional sign followed by
// digits only: "+10", "-5" and " 1,000 " are accepted, "10.5", "1 2" and ""
// are not. Values that overflow int are rejected.
func ParseDelta(s string) (int, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")

	digits := s
	if digits != "" && (digits[0] == '+' || digits[0] == '-') {
		digits = digits[1:]
	}
	if digits == "" {
		return 0, false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, false
		}
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
