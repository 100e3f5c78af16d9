package asic

import (
	"fmt"
	"io/fs"
	"strings"
)

// MetaInfPrefix is the reserved namespace for manifests, signatures and
// other container metadata. Matching is case-insensitive.
const MetaInfPrefix = "META-INF/"

// MimetypeName is the name of the first archive member carrying the
// container media type.
const MimetypeName = "mimetype"

// NormalizePath converts a user-provided entry path to archive form.
//
// It performs the following transformations:
//   - Strips leading slashes: "/docs/a.xml" → "docs/a.xml"
//   - Collapses consecutive slashes: "docs//a.xml" → "docs/a.xml"
//
// Paths containing "." or ".." elements are preserved and rejected later
// by ValidatePath.
func NormalizePath(p string) string {
	p = strings.TrimLeft(p, "/")
	if p == "" {
		return ""
	}

	parts := strings.Split(p, "/")
	result := parts[:0] // reuse backing array
	for _, part := range parts {
		if part != "" {
			result = append(result, part)
		}
	}
	return strings.Join(result, "/")
}

// IsReservedPath reports whether p falls under the META-INF namespace,
// ignoring case.
func IsReservedPath(p string) bool {
	p = NormalizePath(p)
	return len(p) >= len(MetaInfPrefix) && strings.EqualFold(p[:len(MetaInfPrefix)], MetaInfPrefix)
}

// ValidatePath checks that p is a usable entry name: a valid, unrooted,
// slash-separated path that does not collide with the mimetype member.
func ValidatePath(p string) error {
	if p == "" || p == "." || !fs.ValidPath(p) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	if p == MimetypeName {
		return fmt.Errorf("%w: %q is reserved for the container media type", ErrInvalidPath, p)
	}
	return nil
}
