// Copyright (c) 2026 np1th-irc contributors
// released under the MIT license

package utils

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DecodeLine turns raw wire bytes into a string. IRC has no declared
// encoding: valid UTF-8 is taken as-is, anything else is assumed to be
// ISO-8859-1, which never fails.
func DecodeLine(line []byte) string {
	if utf8.Valid(line) {
		return string(line)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(line)
	if err != nil {
		return string(line)
	}
	return string(decoded)
}
