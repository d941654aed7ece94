package parser

import "strings"

const (
	LabelPhysicalSize    = "Physical size:"
	LabelPhysicalDensity = "Physical density:"
	labelRefreshRate     = "refreshRate="
	labelOrientation     = "SurfaceOrientation:"
)

// ParseResolution reads `wm size` output.
func ParseResolution(output string) *string {
	return ParseLabeled(output, LabelPhysicalSize)
}

// ParseDensity reads `wm density` output.
func ParseDensity(output string) *string {
	return ParseLabeled(output, LabelPhysicalDensity)
}

// ParseRefreshRate reads the first refreshRate= value from `dumpsys display`.
func ParseRefreshRate(output string) *string {
	for _, line := range lines(output) {
		_, rest, ok := strings.Cut(line, labelRefreshRate)
		if !ok {
			continue
		}
		rate, _, _ := strings.Cut(rest, ",")
		rate = strings.TrimSpace(rate)
		if rate == "" {
			return nil
		}
		return ptr(rate + " Hz")
	}
	return nil
}

// ParseOrientation reads SurfaceOrientation from `dumpsys input`.
func ParseOrientation(output string) *string {
	code := ParseLabeled(output, labelOrientation)
	if code == nil {
		return nil
	}
	return ptr(DecodeOrientation(*code))
}

// DecodeOrientation maps a surface rotation code to a name. Unknown codes are
// passed through.
func DecodeOrientation(code string) string {
	switch code {
	case "0":
		return "Portrait"
	case "1":
		return "Landscape"
	case "2":
		return "Reverse Portrait"
	case "3":
		return "Reverse Landscape"
	default:
		return code
	}
}
