package textutil

import (
	"regexp"
	"strconv"
	"strings"
)

var listingCountRegex = regexp.MustCompile(`(?i)(\d{1,6})\s+listings`)
var looseNumberRegex = regexp.MustCompile(`(\d+[.,]?\d*)`)

// ParsePrice parses a currency amount out of display text, stripping the
// currency symbol and thousands separators first. Returns false when the
// text does not contain a usable non-negative number.
func ParsePrice(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// ParseLoosePrice is ParsePrice, except it also rescues the first
// number-looking run inside otherwise noisy text.
func ParseLoosePrice(s string) (float64, bool) {
	if v, ok := ParsePrice(s); ok {
		return v, true
	}
	m := looseNumberRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// ParseCount parses a non-negative integer with thousands separators
// stripped, e.g. "1,234" -> 1234.
func ParseCount(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// FindListingCount searches text for an "N listings" phrase and returns N.
func FindListingCount(s string) (int64, bool) {
	m := listingCountRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	return ParseCount(m[1])
}
