package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sdcardListing = `total 64
drwxrwx--x  4 root sdcard_rw 4096 2024-03-01 10:22 .
drwx--x--x  4 root sdcard_rw 4096 2024-03-01 10:22 ..
drwxrwx--x  2 root sdcard_rw 4096 2024-02-11 08:01 Android
-rw-rw----  1 root sdcard_rw 1843 2024-02-12 09:15 notes.txt
-rw-rw----  1 root sdcard_rw 2048 2024-02-12 09:15 My  Document.pdf
lrw-r--r--  1 root root        21 2024-01-01 00:00 sdcard -> /storage/self/primary
crw-rw-rw-  1 root root    1,   3 2024-01-01 00:00 null
srwxrwxrwx  1 root root         0 2024-01-01 00:00 socket
`

func TestParseListing(t *testing.T) {
	entries := ParseListing(sdcardListing, "/sdcard")
	require.Len(t, entries, 4)

	assert.Equal(t, "Android", entries[0].Name)
	assert.Equal(t, KindDirectory, entries[0].Kind)
	assert.Nil(t, entries[0].Size)
	assert.Equal(t, "/sdcard/Android", entries[0].Path)
	assert.True(t, entries[0].IsDir())

	assert.Equal(t, "notes.txt", entries[1].Name)
	assert.Equal(t, KindFile, entries[1].Kind)
	require.NotNil(t, entries[1].Size)
	assert.Equal(t, uint64(1843), *entries[1].Size)
	assert.Equal(t, "-rw-rw----", entries[1].Permissions)

	assert.Equal(t, "My  Document.pdf", entries[2].Name)

	assert.Equal(t, "sdcard", entries[3].Name)
	assert.Equal(t, KindSymlink, entries[3].Kind)
	assert.Equal(t, "/storage/self/primary", entries[3].Target)
	assert.Equal(t, "/sdcard", entries[3].Dir)
}

func TestParseListing_NeverYieldsDotEntries(t *testing.T) {
	for _, e := range ParseListing(sdcardListing, "/") {
		assert.NotEqual(t, ".", e.Name)
		assert.NotEqual(t, "..", e.Name)
	}
}

func TestParseListing_Idempotent(t *testing.T) {
	assert.Equal(t, ParseListing(sdcardListing, "/sdcard"), ParseListing(sdcardListing, "/sdcard"))
}

func TestParseListing_Degraded(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   int
	}{
		{name: "empty", output: "", want: 0},
		{name: "only total", output: "total 0\n", want: 0},
		{name: "truncated line", output: "-rw-r--r-- 1 root root 12", want: 0},
		{name: "blank lines", output: "\n\n   \n", want: 0},
		{name: "crlf", output: "total 4\r\n-rw-r--r-- 1 root root 12 2024-01-01 00:00 a.txt\r\n", want: 1},
		{name: "no total header", output: "-rw-r--r-- 1 root root 12 2024-01-01 00:00 a.txt\n", want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Len(t, ParseListing(tt.output, "/data"), tt.want)
			})
		})
	}
}

func TestParseListing_UnparseableSize(t *testing.T) {
	entries := ParseListing("-rw-r--r-- 1 root root ?? 2024-01-01 00:00 weird\n", "/data/")
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].Size)
	assert.Equal(t, "/data/weird", entries[0].Path)
}

func TestParseListing_SymlinkWithoutSeparator(t *testing.T) {
	entries := ParseListing("lrwxrwxrwx 1 root root 7 2024-01-01 00:00 dangling\n", "/")
	require.Len(t, entries, 1)
	assert.Equal(t, "dangling", entries[0].Name)
	assert.Equal(t, KindSymlink, entries[0].Kind)
	assert.Empty(t, entries[0].Target)
}

func TestParseListing_SymlinkSplit(t *testing.T) {
	entries := ParseListing("lrwxrwxrwx 1 root root 6 2024-01-01 00:00 link -> target\n", "/")
	require.Len(t, entries, 1)
	assert.Equal(t, "link", entries[0].Name)
	assert.Equal(t, "target", entries[0].Target)
	assert.Equal(t, "/link", entries[0].Path)
}
