// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

// Package escape handles quoting and unquoting of JSON strings.
package escape

import (
	"errors"
	"unicode/utf16"
	"unicode/utf8"

	"go4.org/mem"
)

const hexDigit = "0123456789abcdef"

// shortEsc maps control characters that have a short escape form.
var shortEsc = [...]byte{'\b': 'b', '\f': 'f', '\n': 'n', '\r': 'r', '\t': 't'}

// Quote encodes src as a JSON string, including the enclosing double
// quotation marks.
func Quote(src mem.RO) []byte {
	buf := make([]byte, 0, src.Len()+2)
	buf = append(buf, '"')
	for src.Len() != 0 {
		r, n := mem.DecodeRune(src)
		src = src.SliceFrom(n)

		switch {
		case r == '\\' || r == '"':
			buf = append(buf, '\\', byte(r))
		case r < ' ':
			if int(r) < len(shortEsc) && shortEsc[r] != 0 {
				buf = append(buf, '\\', shortEsc[r])
			} else {
				buf = append(buf, '\\', 'u', '0', '0', hexDigit[r>>4], hexDigit[r&15])
			}
		case r < utf8.RuneSelf:
			buf = append(buf, byte(r))
		case r == utf8.RuneError:
			buf = append(buf, `\ufffd`...)
		case r == '\u2028' || r == '\u2029':
			buf = append(buf, '\\', 'u', '2', '0', '2', hexDigit[r&15])
		default:
			buf = utf8.AppendRune(buf, r)
		}
	}
	return append(buf, '"')
}

// Unquote decodes the JSON encoding of a string. The input must have the
// enclosing double quotation marks already removed.
//
// Escape sequences are replaced with their unescaped equivalents, and UTF-16
// surrogate pairs are combined. Invalid escapes are replaced by the Unicode
// replacement rune. Unquote reports an error for an incomplete escape.
func Unquote(src mem.RO) ([]byte, error) {
	i := mem.IndexByte(src, '\\')
	if i < 0 {
		return mem.Append(nil, src), nil
	}

	dec := make([]byte, 0, src.Len())
	for i >= 0 {
		dec = mem.Append(dec, src.SliceTo(i))
		src = src.SliceFrom(i + 1)
		if src.Len() == 0 {
			return nil, errors.New("incomplete escape sequence")
		}

		c := src.At(0)
		src = src.SliceFrom(1)
		switch c {
		case '"', '\\', '/':
			dec = append(dec, c)
		case 'b':
			dec = append(dec, '\b')
		case 'f':
			dec = append(dec, '\f')
		case 'n':
			dec = append(dec, '\n')
		case 'r':
			dec = append(dec, '\r')
		case 't':
			dec = append(dec, '\t')
		case 'u':
			if src.Len() < 4 {
				return nil, errors.New("incomplete Unicode escape")
			}
			r := parseHex(src.SliceTo(4))
			src = src.SliceFrom(4)

			// A high surrogate followed by an escaped low surrogate encodes a
			// single rune outside the BMP.
			if utf16.IsSurrogate(r) && src.Len() >= 6 && src.At(0) == '\\' && src.At(1) == 'u' {
				if pr := utf16.DecodeRune(r, parseHex(src.Slice(2, 6))); pr != utf8.RuneError {
					r = pr
					src = src.SliceFrom(6)
				}
			}
			dec = utf8.AppendRune(dec, r)
		default:
			dec = utf8.AppendRune(dec, utf8.RuneError)
		}
		i = mem.IndexByte(src, '\\')
	}
	return mem.Append(dec, src), nil
}

// parseHex decodes the hexadecimal digits of data, or returns the replacement
// rune if data contains a non-digit.
func parseHex(data mem.RO) rune {
	var v rune
	for i := 0; i < data.Len(); i++ {
		b := data.At(i)
		v <<= 4
		switch {
		case '0' <= b && b <= '9':
			v += rune(b - '0')
		case 'a' <= b && b <= 'f':
			v += rune(b - 'a' + 10)
		case 'A' <= b && b <= 'F':
			v += rune(b - 'A' + 10)
		default:
			return utf8.RuneError
		}
	}
	return v
}
