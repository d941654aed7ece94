package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseMemory reads a /proc/meminfo field such as "MemTotal" and formats it
// for display. Only the first line with the field's prefix is considered.
func ParseMemory(output, field string) *string {
	for _, line := range lines(output) {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, field) {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			return nil
		}
		kb, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return nil
		}
		return ptr(FormatKilobytes(kb))
	}
	return nil
}

// FormatKilobytes renders whole megabytes below 1024 MB and gigabytes with one
// decimal place from there on.
func FormatKilobytes(kb uint64) string {
	mb := kb / 1024
	if mb >= 1024 {
		return fmt.Sprintf("%.1f GB", float64(mb)/1024.0)
	}
	return fmt.Sprintf("%d MB", mb)
}

// ParseStorage reads `df -h <path>` output and returns the total and
// available columns verbatim.
func ParseStorage(output, path string) (total, available *string) {
	for _, line := range lines(output) {
		if !strings.Contains(line, path) && !strings.HasPrefix(line, "/dev/") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 4 {
			continue
		}
		return ptr(parts[1]), ptr(parts[3])
	}
	return nil, nil
}
