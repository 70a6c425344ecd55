package encoding

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// The Nalda file channel is a legacy feed interface: every CSV it accepts is
// Windows-1252, not UTF-8. These helpers sit between the feed builders and
// the transfer client.

// ToWindows1252 converts a UTF-8 payload to Windows-1252 for upload.
// If the payload cannot be encoded it is shipped as is (better than dropping
// the whole feed over one exotic character).
func ToWindows1252(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}

	encoded, err := charmap.Windows1252.NewEncoder().Bytes(b)
	if err != nil {
		return b
	}

	return encoded
}

// ToUTF8 converts a Windows-1252 response body to a UTF-8 string.
// If the data is already valid UTF-8, it returns it as is.
func ToUTF8(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	if utf8.Valid(b) {
		return strings.TrimSpace(string(b))
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}

	return strings.TrimSpace(string(decoded))
}
