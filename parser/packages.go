package parser

import "strings"

const packagePrefix = "package:"

// ParsePackages reads `pm list packages` output. Lines without the package:
// prefix are ignored.
func ParsePackages(output string) []string {
	var packages []string
	for _, line := range lines(output) {
		name, ok := strings.CutPrefix(strings.TrimSpace(line), packagePrefix)
		if !ok || name == "" {
			continue
		}
		packages = append(packages, name)
	}
	return packages
}
