package parser

import (
	"regexp"
	"strconv"
)

// pointsRegex matches a point marker such as "12 p." or "2p".
var pointsRegex = regexp.MustCompile(`(\d+)\s*p`)

// ExtractPoints returns the integer of the first point marker in text, or 0.
// Later markers are ignored. Values that do not fit an int yield 0.
func ExtractPoints(text string) int {
	m := pointsRegex.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
