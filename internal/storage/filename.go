package storage

import (
	"path"
	"regexp"
	"strings"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename reduces name to a single path element made of ASCII
// letters, digits, '.', '_' and '-'. Separators of either OS flavour are
// dropped along with every directory component, and leading dots are
// stripped so the result can never be "." or "..". An unusable name returns
// "".
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Base(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.TrimLeft(name, "._-")
	if name == "" || name == "." {
		return ""
	}
	return name
}

// Extension returns the lower-cased text after the last '.' in name, or ""
// when name has none.
func Extension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// TruncateFilename shortens the stem of a sanitised name so the whole name
// fits in maxLen bytes, keeping the extension. name must be ASCII, as returned
// by SanitizeFilename.
func TruncateFilename(name string, maxLen int) string {
	if len(name) <= maxLen {
		return name
	}
	ext := ""
	if i := strings.LastIndex(name, "."); i > 0 {
		ext = name[i:]
	}
	keep := maxLen - len(ext)
	if keep < 1 {
		return name[:maxLen]
	}
	return name[:keep] + ext
}
