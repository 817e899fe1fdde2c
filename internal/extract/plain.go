package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// extractPlain returns content as a string with any UTF-8 byte order mark
// removed. Invalid UTF-8 sequences are replaced with the replacement character.
func extractPlain(content []byte) (string, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if !utf8.Valid(content) {
		return strings.ToValidUTF8(string(content), "\ufffd"), nil
	}
	return string(content), nil
}
