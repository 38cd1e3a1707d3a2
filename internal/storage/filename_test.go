package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	for in, want := range map[string]string{
		"photo.png":              "photo.png",
		"My Holiday Photo.JPG":   "My_Holiday_Photo.JPG",
		"../../etc/passwd":       "passwd",
		`..\..\windows\win.ini`:  "win.ini",
		"/abs/path/clip.mp4":     "clip.mp4",
		".hidden.png":            "hidden.png",
		"..":                     "",
		".":                      "",
		"":                       "",
		"a<b>c|d?.gif":           "abcd.gif",
		"  spaced   out  .jpeg ": "spaced_out_.jpeg",
	} {
		require.Equal(t, want, SanitizeFilename(in), in)
	}
}

func TestExtension(t *testing.T) {
	for in, want := range map[string]string{
		"photo.PNG":      "png",
		"archive.tar.gz": "gz",
		"noext":          "",
		"trailing.":      "",
		".mkv":           "mkv",
	} {
		require.Equal(t, want, Extension(in), in)
	}
}

func TestTruncateFilename(t *testing.T) {
	require.Equal(t, "short.png", TruncateFilename("short.png", 20))

	long := strings.Repeat("a", 300) + ".png"
	got := TruncateFilename(long, 128)
	require.Len(t, got, 128)
	require.True(t, strings.HasSuffix(got, ".png"))
	require.True(t, strings.HasPrefix(got, "aaaa"))

	require.Equal(t, strings.Repeat("b", 10), TruncateFilename(strings.Repeat("b", 40), 10))
}
