package write

import (
	"path"
	"strings"
)

// SkipCompressionFunc returns true when an entry should be stored uncompressed.
// It is called once per entry and should be inexpensive.
type SkipCompressionFunc func(name, mimeType string) bool

// DefaultSkipCompression returns a SkipCompressionFunc that skips known
// already-compressed extensions and media types. Encrypted payloads are
// indistinguishable from random data, so the extensions added by the
// bundled encryption filters are included.
func DefaultSkipCompression() SkipCompressionFunc {
	return func(name, mimeType string) bool {
		ext := strings.ToLower(path.Ext(name))
		if _, ok := defaultSkipCompressionExts[ext]; ok {
			return true
		}
		mt := strings.ToLower(mimeType)
		return (strings.HasPrefix(mt, "image/") && mt != "image/svg+xml") ||
			strings.HasPrefix(mt, "video/") ||
			strings.HasPrefix(mt, "audio/")
	}
}

// ShouldSkip checks if any predicate returns true for the given entry.
func ShouldSkip(name, mimeType string, predicates []SkipCompressionFunc) bool {
	for _, fn := range predicates {
		if fn == nil {
			continue
		}
		if fn(name, mimeType) {
			return true
		}
	}
	return false
}

var defaultSkipCompressionExts = map[string]struct{}{
	".7z":    {},
	".aac":   {},
	".aes":   {},
	".age":   {},
	".asice": {},
	".avif":  {},
	".br":    {},
	".bz2":   {},
	".docx":  {},
	".flac":  {},
	".gif":   {},
	".gz":    {},
	".heic":  {},
	".jpeg":  {},
	".jpg":   {},
	".mkv":   {},
	".mov":   {},
	".mp3":   {},
	".mp4":   {},
	".odt":   {},
	".ogg":   {},
	".png":   {},
	".rar":   {},
	".sce":   {},
	".tgz":   {},
	".webm":  {},
	".webp":  {},
	".xlsx":  {},
	".xz":    {},
	".zip":   {},
	".zst":   {},
}
