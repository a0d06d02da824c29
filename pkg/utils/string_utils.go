package utils

import (
	"regexp"
	"strconv"
)

// NewNullString is a helper for string pointers, returning nil if string is empty.
// Useful for fields that are optional and should be NULL in DB if not provided.
func NewNullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var digitsRegex = regexp.MustCompile(`\d+`)

// DigitsOrDefault extracts the first run of digits from s and parses it as an
// int64. Returns def when s contains no digits (e.g. "Patio A" -> def,
// "T-12" -> 12). Used to derive a numeric table id from free-form table labels.
func DigitsOrDefault(s string, def int64) int64 {
	m := digitsRegex.FindString(s)
	if m == "" {
		return def
	}
	n, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return def
	}
	return n
}
