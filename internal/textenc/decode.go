// Package textenc turns uploaded bytes of unknown encoding into UTF-8 text.
package textenc

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var errInvalidUTF8 = errors.New("invalid utf-8 sequence")

type decoder struct {
	name   string
	decode func([]byte) (string, error)
}

// Tried in order, first success wins.
var decoders = []decoder{
	{name: "utf-8", decode: decodeUTF8},
	{name: "utf-8-sig", decode: decodeUTF8BOM},
	{name: "latin-1", decode: func(b []byte) (string, error) {
		return charmap.ISO8859_1.NewDecoder().String(string(b))
	}},
	{name: "windows-1252", decode: func(b []byte) (string, error) {
		return charmap.Windows1252.NewDecoder().String(string(b))
	}},
}

func decodeUTF8(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", errInvalidUTF8
	}
	return string(b), nil
}

func decodeUTF8BOM(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", errInvalidUTF8
	}
	return unicode.UTF8BOM.NewDecoder().String(string(b))
}

// Decode returns the text and the name of the encoding that decoded it.
// When every decoder fails the bytes are read as UTF-8 with invalid
// sequences replaced.
func Decode(b []byte) (string, string) {
	for _, d := range decoders {
		if s, err := d.decode(b); err == nil {
			return s, d.name
		}
	}
	return strings.ToValidUTF8(string(b), "�"), "utf-8-replace"
}
