// Package rawfiles decides whether a filename denotes raw instrument data.
//
// Classification is a pure suffix match against a fixed table, shared by
// every archive adapter so the same filename always classifies the same way
// regardless of which archive listed it.
package rawfiles

import (
	"strings"

	"github.com/pxharvest/pxharvest/px"
)

// rawSuffixes is ordered longest-first so compound suffixes win over their
// shorter substrings: "sample.d.zip" must match ".d.zip", not ".zip", and
// "sample.raw.gz" must match ".raw.gz", not ".gz". Matching is
// case-insensitive.
var rawSuffixes = []string{
	".raw.gz",
	".d.zip",
	".wiff2",
	".mzxml",
	".mzml",
	".wiff",
	".raw",
	".zip",
	".tar",
	".bz2",
	".rar",
	".ms2",
	".mgf",
	".fid",
	".yep",
	".tdf",
	".gz",
	".7z",
	".d",
}

// Match returns the raw-file suffix a filename carries, or "" when the
// filename does not denote raw instrument data. Pure and total: no I/O,
// identical output for identical input.
func Match(filename string) string {
	lower := strings.ToLower(filename)
	for _, suffix := range rawSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return suffix
		}
	}
	return ""
}

// IsRaw reports whether a filename denotes raw instrument data.
func IsRaw(filename string) bool {
	return Match(filename) != ""
}

// Count classifies every record and returns how many are raw plus the summed
// byte size of the raw ones (entries without a declared size contribute 0).
func Count(files []px.FileRecord) (int, int64) {
	var n int
	var size int64
	for _, f := range files {
		if IsRaw(f.Name) {
			n++
			size += f.Size
		}
	}
	return n, size
}

// Suffixes returns a copy of the recognition table, longest suffix first.
func Suffixes() []string {
	out := make([]string, len(rawSuffixes))
	copy(out, rawSuffixes)
	return out
}
