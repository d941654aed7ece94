// Package parser turns raw device shell output into typed records.
//
// Every function here is pure and total: malformed or truncated input yields
// fewer entries or nil fields, never an error or a panic. Optional fields are
// pointers so that "absent" is distinguishable from a zero value.
package parser

import "strings"

// lines splits output on newlines and strips carriage returns left by
// devices that emit CRLF.
func lines(output string) []string {
	raw := strings.Split(output, "\n")
	for i, l := range raw {
		raw[i] = strings.TrimRight(l, "\r")
	}
	return raw
}

// Property normalizes a getprop result.
func Property(output string) string {
	return strings.TrimSpace(output)
}

// ParseLabeled returns the trimmed text following label on the first line
// that contains it.
func ParseLabeled(output, label string) *string {
	for _, line := range lines(output) {
		_, rest, ok := strings.Cut(line, label)
		if !ok {
			continue
		}
		value := strings.TrimSpace(rest)
		if value == "" {
			return nil
		}
		return &value
	}
	return nil
}

func ptr[T any](v T) *T {
	return &v
}
