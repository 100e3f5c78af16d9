package asic

import (
	"mime"
	"path"
	"strings"
)

// DefaultMimeType is used when no better media type is known.
const DefaultMimeType = "application/octet-stream"

// ContainerMimeType is the media type of ASiC-E containers, stored in the
// mimetype member.
const ContainerMimeType = "application/vnd.etsi.asic-e+zip"

// builtinMimeTypes covers extensions common in signed document containers.
// The system MIME table varies across hosts, so these take precedence.
var builtinMimeTypes = map[string]string{
	".aes":   "application/octet-stream",
	".age":   "application/octet-stream",
	".asice": ContainerMimeType,
	".bdoc":  ContainerMimeType,
	".csv":   "text/csv",
	".docx":  "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".gif":   "image/gif",
	".htm":   "text/html",
	".html":  "text/html",
	".jpeg":  "image/jpeg",
	".jpg":   "image/jpeg",
	".json":  "application/json",
	".odt":   "application/vnd.oasis.opendocument.text",
	".p7s":   "application/pkcs7-signature",
	".pdf":   "application/pdf",
	".png":   "image/png",
	".sce":   ContainerMimeType,
	".txt":   "text/plain",
	".xml":   "application/xml",
	".xlsx":  "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".zip":   "application/zip",
}

// ExtensionDetector resolves media types from file extensions. It consults
// a built-in table first, then the system MIME table, and falls back to
// DefaultMimeType. Parameters such as "; charset=utf-8" are dropped.
type ExtensionDetector struct{}

// Detect implements MimeDetector.
func (ExtensionDetector) Detect(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		return DefaultMimeType
	}
	if mt, ok := builtinMimeTypes[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		if base, _, err := mime.ParseMediaType(mt); err == nil {
			return base
		}
	}
	return DefaultMimeType
}
