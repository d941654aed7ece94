package parser

import (
	"strconv"
	"strings"
	"unicode"
)

// FileKind classifies a directory-listing row.
type FileKind string

const (
	KindFile      FileKind = "file"
	KindDirectory FileKind = "directory"
	KindSymlink   FileKind = "symlink"
)

// FileEntry is one row of an `ls -la` listing.
type FileEntry struct {
	Name        string   `json:"name"`
	Dir         string   `json:"dir"`
	Path        string   `json:"path"`
	Kind        FileKind `json:"kind"`
	Target      string   `json:"target,omitempty"`
	Size        *uint64  `json:"size,omitempty"`
	Permissions string   `json:"permissions"`
}

func (e FileEntry) IsDir() bool {
	return e.Kind == KindDirectory
}

const (
	minListingFields = 8
	nameField        = 7
	sizeField        = 4
	symlinkSeparator = " -> "
)

// ParseListing parses toybox-style `ls -la <dir>` output:
//
//	drwxrwx--x  4 system ext_data_rw 4096 2024-03-01 10:22 Android
//
// Rows for devices, pipes and sockets are skipped along with "." and "..".
func ParseListing(output, dir string) []FileEntry {
	var entries []FileEntry
	leading := true

	for _, line := range lines(output) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if leading {
			leading = false
			if strings.HasPrefix(strings.TrimSpace(line), "total") {
				continue
			}
		}

		if entry, ok := parseListingLine(line, dir); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

func parseListingLine(line, dir string) (FileEntry, bool) {
	fields, offsets := fieldsWithOffsets(line)
	if len(fields) < minListingFields {
		return FileEntry{}, false
	}

	perms := fields[0]
	// The name is everything from the eighth field on, spacing preserved.
	name := strings.TrimRightFunc(line[offsets[nameField]:], unicode.IsSpace)

	entry := FileEntry{Dir: dir, Permissions: perms}
	switch perms[0] {
	case 'd':
		entry.Kind = KindDirectory
	case '-':
		entry.Kind = KindFile
		if size, err := strconv.ParseUint(fields[sizeField], 10, 64); err == nil {
			entry.Size = &size
		}
	case 'l':
		entry.Kind = KindSymlink
		if link, target, ok := strings.Cut(name, symlinkSeparator); ok {
			name = link
			entry.Target = target
		}
	default:
		return FileEntry{}, false
	}

	if name == "." || name == ".." {
		return FileEntry{}, false
	}
	entry.Name = name
	entry.Path = joinRemote(dir, name)
	return entry, true
}

// fieldsWithOffsets is strings.Fields that also reports where each field
// starts in s.
func fieldsWithOffsets(s string) ([]string, []int) {
	var fields []string
	var offsets []int
	start := -1
	for i, r := range s {
		if unicode.IsSpace(r) {
			if start >= 0 {
				fields = append(fields, s[start:i])
				offsets = append(offsets, start)
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		fields = append(fields, s[start:])
		offsets = append(offsets, start)
	}
	return fields, offsets
}

func joinRemote(dir, name string) string {
	if strings.HasSuffix(dir, "/") {
		return dir + name
	}
	return dir + "/" + name
}
