// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jsplit

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"go4.org/mem"
)

// Token is the type of a lexical token in the JSON grammar.
type Token byte

// Constants defining the valid Token values.
const (
	Invalid Token = iota // invalid token
	LBrace               // left brace "{"
	RBrace               // right brace "}"
	LSquare              // left square bracket "["
	RSquare              // right square bracket "]"
	Comma                // comma ","
	Colon                // colon ":"
	Integer              // number: integer with no fraction or exponent
	Number               // number with fraction and/or exponent
	String               // quoted string
	True                 // constant: true
	False                // constant: false
	Null                 // constant: null

	BlockComment // comment: /* ... */
	LineComment  // comment: // ... <LF>
)

var tokenStr = [...]string{
	Invalid: "invalid token",
	LBrace:  `"{"`,
	RBrace:  `"}"`,
	LSquare: `"["`,
	RSquare: `"]"`,
	Comma:   `","`,
	Colon:   `":"`,
	Integer: "integer",
	Number:  "number",
	String:  "string",
	True:    "true",
	False:   "false",
	Null:    "null",

	BlockComment: "block comment",
	LineComment:  "line comment",
}

func (t Token) String() string {
	v := int(t)
	if v >= len(tokenStr) {
		return tokenStr[Invalid]
	}
	return tokenStr[v]
}

// IsScalar reports whether t is the token of a scalar value.
func (t Token) IsScalar() bool { return t >= Integer && t <= Null }

// ErrMoreInput is reported by a Scanner or a Source when no further token can
// be decoded from the input delivered so far. It is not an error: the caller
// should deliver more input, or signal the end of input, and try again.
var ErrMoreInput = errors.New("more input needed")

// A Scanner reads lexical tokens from input delivered incrementally.
//
// Input is added by calling Feed, and the end of the input is marked by
// calling EndOfInput. Each call to Next advances the scanner to the next
// complete token. A token that may continue past the end of the buffered
// input is not reported until more input arrives or the input ends.
type Scanner struct {
	buf      []byte // buffered input; buf[:pos] has been consumed
	pos      int    // offset of the next unread byte in buf
	base     int    // stream offset of buf[0]
	eof      bool   // no further input will be delivered
	comments bool   // allow comments

	tok        Token
	text       []byte // current token, aliases buf
	start, end int    // stream offsets of the current token

	// Apparent line and column offsets (0-based)
	line, col   int // of buf[pos]
	tline, tcol int // of the current token
	eline, ecol int // just past the current token
}

// NewScanner constructs a new lexical scanner with no buffered input.
func NewScanner() *Scanner { return new(Scanner) }

// AllowComments configures the scanner to report (true) or reject (false)
// comment tokens. Comments are a non-standard extension of JSON.  If
// enabled, C++ style block comments (/* ... */) and line comments (// ...)
// are recognized and emitted as tokens.
func (s *Scanner) AllowComments(ok bool) { s.comments = ok }

// Feed appends a copy of data to the buffered input of s.  Feed invalidates
// the text of the current token.
func (s *Scanner) Feed(data []byte) {
	if s.pos > 0 {
		n := copy(s.buf, s.buf[s.pos:])
		s.buf = s.buf[:n]
		s.base += s.pos
		s.pos = 0
	}
	s.buf = append(s.buf, data...)
	s.text = nil
}

// EndOfInput marks the end of the input. After EndOfInput, tokens ending at
// the end of the buffered input are complete, and Next reports io.EOF once
// the buffered input is exhausted.
func (s *Scanner) EndOfInput() { s.eof = true }

// Buffered reports the number of bytes of input not yet consumed.
func (s *Scanner) Buffered() int { return len(s.buf) - s.pos }

// Next advances s to the next token of the input, or reports an error.
// It returns ErrMoreInput if the next token is not yet complete, and io.EOF
// when the input has ended and all of it has been consumed.
func (s *Scanner) Next() error {
	s.tok, s.text = Invalid, nil
	s.skipSpace()
	s.start, s.tline, s.tcol = s.base+s.pos, s.line, s.col
	if s.pos == len(s.buf) {
		if s.eof {
			return io.EOF
		}
		return ErrMoreInput
	}

	n, tok, err := s.scan(s.buf[s.pos:])
	if err != nil {
		return err
	}
	s.tok, s.text = tok, s.buf[s.pos:s.pos+n]
	s.commit(n)
	s.end, s.eline, s.ecol = s.base+s.pos, s.line, s.col
	return nil
}

// Token returns the type of the current token.
func (s *Scanner) Token() Token { return s.tok }

// Text returns the undecoded text of the current token.  The return value is
// only valid until the next call of Next or Feed.
func (s *Scanner) Text() []byte { return s.text }

// Span returns the location span of the current token.
func (s *Scanner) Span() Span { return Span{Pos: s.start, End: s.end} }

// Location returns the complete location of the current token.
func (s *Scanner) Location() Location {
	return Location{
		Span:  s.Span(),
		First: LineCol{Line: s.tline + 1, Column: s.tcol},
		Last:  LineCol{Line: s.eline + 1, Column: s.ecol},
	}
}

func (s *Scanner) skipSpace() {
	i := s.pos
	for i < len(s.buf) && isSpace(s.buf[i]) {
		i++
	}
	s.commit(i - s.pos)
}

// commit consumes n bytes of input, updating the line and column.
func (s *Scanner) commit(n int) {
	for _, b := range s.buf[s.pos : s.pos+n] {
		if b == '\n' {
			s.line++
			s.col = 0
		} else {
			s.col++
		}
	}
	s.pos += n
}

// scan reports the length and type of the token at the front of in, which
// must be non-empty.
func (s *Scanner) scan(in []byte) (int, Token, error) {
	ch := in[0]
	if t, ok := selfDelim(ch); ok {
		return 1, t, nil
	}
	switch {
	case ch == '"':
		return s.scanString(in)
	case isNumStart(ch):
		return s.scanNumber(in)
	case ch == '/' && s.comments:
		return s.scanComment(in)
	case ch == 't':
		return s.scanName(in, True, "true")
	case ch == 'f':
		return s.scanName(in, False, "false")
	case ch == 'n':
		return s.scanName(in, Null, "null")
	}
	if !utf8.FullRune(in) && !s.eof {
		return 0, Invalid, ErrMoreInput
	}
	r, _ := utf8.DecodeRune(in)
	return 0, Invalid, s.failf(0, "unexpected %q", r)
}

func (s *Scanner) scanString(in []byte) (int, Token, error) {
	i := 1
	for i < len(in) {
		switch ch := in[i]; {
		case ch == '"':
			return i + 1, String, nil

		case ch == '\\':
			if i+1 == len(in) {
				return s.incomplete(i, "string")
			}
			switch esc := in[i+1]; esc {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
				i += 2
			case 'u':
				hex := in[i+2 : min(i+6, len(in))]
				for _, h := range hex {
					if !isHexDigit(h) {
						return 0, Invalid, s.failf(i, "invalid Unicode escape: not a hex digit: %q", h)
					}
				}
				if len(hex) < 4 {
					return s.incomplete(i, "Unicode escape")
				}
				i += 6
			default:
				return 0, Invalid, s.failf(i, "invalid %q after escape", esc)
			}

		case ch < ' ':
			return 0, Invalid, s.failf(i, "unescaped control %q", ch)

		case ch < utf8.RuneSelf:
			i++

		default:
			if !utf8.FullRune(in[i:]) {
				return s.incomplete(i, "string")
			}
			r, n := utf8.DecodeRune(in[i:])
			if r == utf8.RuneError && n == 1 {
				return 0, Invalid, s.failf(i, "invalid UTF-8 encoding")
			}
			i += n
		}
	}
	return s.incomplete(i, "string")
}

func (s *Scanner) scanNumber(in []byte) (int, Token, error) {
	i := 0
	if in[0] == '-' {
		i++
	}
	more := func() bool { return i == len(in) && !s.eof }
	digits := func() int {
		p := i
		for i < len(in) && isDigit(in[i]) {
			i++
		}
		return i - p
	}

	// If there is a leading sign, we need at least one digit.
	first := i
	if digits() == 0 {
		if more() {
			return 0, Invalid, ErrMoreInput
		}
		return 0, Invalid, s.failf(i, "want digit, got %s", s.describe(in, i))
	} else if more() {
		return 0, Invalid, ErrMoreInput
	}

	// Check for extra leading zeroes, which are disallowed by the JSON grammar.
	// That is: 0.12 is OK, 01.2 is not.
	if in[first] == '0' && i-first > 1 {
		return 0, Invalid, s.failf(first, "extra leading zeroes")
	}

	// If a decimal point follows, consume a fractional part.
	tok := Integer
	if i < len(in) && in[i] == '.' {
		i++
		if digits() == 0 {
			if more() {
				return 0, Invalid, ErrMoreInput
			}
			return 0, Invalid, s.failf(i, "no digits after decimal point")
		} else if more() {
			return 0, Invalid, ErrMoreInput
		}
		tok = Number
	}

	// If an exponent follows, consume it.
	if i < len(in) && (in[i] == 'e' || in[i] == 'E') {
		i++
		if i < len(in) && (in[i] == '+' || in[i] == '-') {
			i++
		}
		if digits() == 0 {
			if more() {
				return 0, Invalid, ErrMoreInput
			}
			return 0, Invalid, s.failf(i, "missing exponent digits")
		} else if more() {
			return 0, Invalid, ErrMoreInput
		}
		tok = Number
	}
	return i, tok, nil
}

func (s *Scanner) scanComment(in []byte) (int, Token, error) {
	if len(in) < 2 {
		return s.incomplete(1, "comment")
	}
	switch in[1] {
	case '/': // line comment to LF
		if i := bytes.IndexByte(in, '\n'); i >= 0 {
			return i + 1, LineComment, nil
		} else if !s.eof {
			return 0, Invalid, ErrMoreInput
		}
		return len(in), LineComment, nil

	case '*': // block comment
		if i := bytes.Index(in[2:], []byte("*/")); i >= 0 {
			return i + 4, BlockComment, nil
		}
		return s.incomplete(len(in), "block comment")

	default:
		return 0, Invalid, s.failf(1, "invalid %q in comment", in[1])
	}
}

func (s *Scanner) scanName(in []byte, tok Token, want string) (int, Token, error) {
	i := 1
	for i < len(in) && isNameByte(in[i]) {
		i++
	}
	if i == len(in) && !s.eof {
		return 0, Invalid, ErrMoreInput
	}
	if got := mem.B(in[:i]); !got.EqualString(want) {
		return 0, Invalid, s.failf(0, "unknown constant %q", got.StringCopy())
	}
	return i, tok, nil
}

// incomplete reports that the token at the front of the input ends at offset
// i without being complete.
func (s *Scanner) incomplete(i int, what string) (int, Token, error) {
	if !s.eof {
		return 0, Invalid, ErrMoreInput
	}
	return 0, Invalid, posError{s.start + i, eofError(what)}
}

// eofError reports that the input ended inside a token of the named kind.
type eofError string

func (e eofError) Error() string { return "unexpected end of input in " + string(e) }

func (eofError) Unwrap() error { return io.ErrUnexpectedEOF }

// describe returns a human-readable label for the input at offset i of in.
func (s *Scanner) describe(in []byte, i int) string {
	if i >= len(in) {
		return "end of input"
	}
	r, _ := utf8.DecodeRune(in[i:])
	return fmt.Sprintf("%q", r)
}

type posError struct {
	pos int
	err error
}

func (p posError) Error() string {
	return fmt.Sprintf("%s (offset %d)", p.err.Error(), p.pos)
}

func (p posError) Unwrap() error { return p.err }

// failf reports an error at offset i from the start of the current token.
func (s *Scanner) failf(i int, msg string, args ...any) error {
	return posError{s.start + i, fmt.Errorf(msg, args...)}
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\r' || ch == '\n' || ch == '\t'
}

func isNumStart(ch byte) bool { return ch == '-' || isDigit(ch) }
func isDigit(ch byte) bool    { return '0' <= ch && ch <= '9' }
func isNameByte(ch byte) bool { return ch >= 'a' && ch <= 'z' }

func isHexDigit(ch byte) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

var self = [...]Token{LBrace, RBrace, LSquare, RSquare, Comma, Colon}

func selfDelim(ch byte) (Token, bool) {
	i := strings.IndexByte("{}[],:", ch)
	if i >= 0 {
		return self[i], true
	}
	return Invalid, false
}
