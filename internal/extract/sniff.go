package extract

import (
	"github.com/gabriel-vasile/mimetype"

	"github.com/joseph-ayodele/doctext/constants"
)

// Sniff guesses the content type of data from its leading bytes only.
// Unknown content yields application/octet-stream.
func Sniff(data []byte) string {
	if len(data) == 0 {
		return constants.MimeOctetStream
	}
	mime := constants.NormalizeMime(mimetype.Detect(data).String())
	if mime == "" {
		return constants.MimeOctetStream
	}
	return mime
}
