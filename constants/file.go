package constants

import "strings"

// Content types the extractor understands.
const (
	MimePDF         = "application/pdf"
	MimeJPEG        = "image/jpeg"
	MimePNG         = "image/png"
	MimeBMP         = "image/bmp"
	MimeTIFF        = "image/tiff"
	MimeOctetStream = "application/octet-stream"
)

// Format groups content types by extraction strategy.
type Format string

const (
	PDF   Format = "PDF"
	IMAGE Format = "IMAGE"
)

var formatsByMime = map[string]Format{
	MimePDF:  PDF,
	MimeJPEG: IMAGE,
	MimePNG:  IMAGE,
	MimeBMP:  IMAGE,
	MimeTIFF: IMAGE,
}

// MapMimeToFormat returns the extraction format for a content type, or "" if
// the type is not routable.
func MapMimeToFormat(mime string) Format {
	return formatsByMime[NormalizeMime(mime)]
}

// NormalizeMime lowercases and drops parameters such as "; charset=utf-8".
func NormalizeMime(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}
