// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Package cborsrc implements a jsplit.Source for a sequence of CBOR data
// items (RFC 8949, RFC 8742).
//
// Arrays and maps are reported as BeginArray/EndArray and
// BeginObject/EndObject events, map keys as Member events, and all other data
// items as Value events. The text of a key or value is the JSON encoding of
// the item, so that units recorded from a CBOR stream can be rendered or
// decoded as JSON:
//
//	CBOR item                     | Token   | Text
//	----------------------------- | ------- | ---------------------------
//	unsigned or negative integer  | Integer | decimal digits
//	bignum (tags 2, 3)            | Integer | decimal digits
//	float (half, single, double)  | Number  | shortest decimal; NaN and ±Inf are null
//	text string                   | String  | quoted string
//	byte string                   | String  | quoted standard base64
//	date/time (tags 0, 1)         | String  | quoted RFC 3339 time in UTC
//	true, false                   | True, False |
//	null, undefined               | Null    | null
//	other simple values           | Integer | the simple value number
//
// Map keys that are not text strings are converted to strings using the text
// of the corresponding value. Tags on arrays and maps are ignored; tags on
// other items are interpreted if known and otherwise ignored.
package cborsrc

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"strconv"
	"time"

	"github.com/creachadair/jsplit"
	"github.com/fxamacker/cbor/v2"
)

// CBOR major types.
const (
	majorUint   = 0
	majorNegInt = 1
	majorBytes  = 2
	majorText   = 3
	majorArray  = 4
	majorMap    = 5
	majorTag    = 6
	majorSimple = 7

	infoIndefinite = 31
	breakByte      = 0xff
)

// errShort is reported internally when a data item is not completely buffered.
var errShort = errors.New("short item")

// Source is an incremental parser for a sequence of CBOR data items.  It
// implements the jsplit.Source interface. Once Next has reported a
// *SyntaxError, it reports the same error for all subsequent calls.
type Source struct {
	buf    []byte // buffered input; buf[:pos] has been consumed
	pos    int    // offset of the next unread byte in buf
	base   int    // stream offset of buf[0]
	eof    bool   // no further input will be delivered
	closed bool   // Close has been called

	stk  []frame
	text []byte // text of the current event
	err  error
}

// A frame tracks an open array or map.
type frame struct {
	isMap bool
	n     int  // items remaining in a definite-length frame, -1 if indefinite
	key   bool // the next item of a map is a key
}

// New constructs a new Source with no buffered input.
func New() *Source { return new(Source) }

// Feed delivers a chunk of input. It implements part of the jsplit.Source
// interface.
func (s *Source) Feed(data []byte) error {
	if s.err != nil {
		return s.err
	} else if s.eof || s.closed {
		return errors.New("feed after end of input")
	}
	if s.pos > 0 {
		n := copy(s.buf, s.buf[s.pos:])
		s.buf = s.buf[:n]
		s.base += s.pos
		s.pos = 0
	}
	s.buf = append(s.buf, data...)
	return nil
}

// EndOfInput signals that no further input will be delivered.  It
// implements part of the jsplit.Source interface.
func (s *Source) EndOfInput() { s.eof = true }

// Close releases the input buffered by s. It implements the io.Closer
// interface, so that a jsplit.Tokenizer will close the source when it is
// closed.
func (s *Source) Close() error {
	s.closed = true
	s.buf, s.pos, s.stk = nil, 0, nil
	return nil
}

// Next returns the next complete event from the input. It implements part of
// the jsplit.Source interface.
func (s *Source) Next() (jsplit.Event, error) {
	if s.err != nil {
		return jsplit.Event{}, s.err
	}
	ev, err := s.next()
	if err == errShort {
		if !s.eof {
			return jsplit.Event{}, jsplit.ErrMoreInput
		}
		err = s.failf(s.base+s.pos, "unexpected end of input")
	}
	if err != nil && err != io.EOF {
		s.err = err
	}
	return ev, err
}

func (s *Source) next() (jsplit.Event, error) {
	// A definite-length array or map whose items have all been delivered ends
	// without any further input.
	if n := len(s.stk); n > 0 && s.stk[n-1].n == 0 {
		return s.close(s.base+s.pos, s.base+s.pos), nil
	}

	in := s.buf[s.pos:]
	if len(in) == 0 {
		if s.eof && len(s.stk) == 0 {
			return jsplit.Event{}, io.EOF
		}
		return jsplit.Event{}, errShort
	}
	start := s.base + s.pos

	if in[0] == breakByte {
		top := s.top()
		if top == nil || top.n >= 0 {
			return jsplit.Event{}, s.failf(start, "unexpected break")
		} else if top.isMap && !top.key {
			return jsplit.Event{}, s.failf(start, "map has a key with no value")
		}
		s.pos++
		return s.close(start, start+1), nil
	}

	// Skip tags to find the item they apply to.
	var h header
	skip := 0
	for {
		var err error
		h, err = readHeader(in[skip:])
		if err != nil {
			return jsplit.Event{}, s.wrap(start+skip, err)
		} else if h.major != majorTag {
			break
		}
		skip += h.size
	}
	top := s.top()
	isKey := top != nil && top.isMap && top.key

	switch h.major {
	case majorArray, majorMap:
		if isKey {
			return jsplit.Event{}, s.failf(start, "unsupported map key type")
		}
		f := frame{isMap: h.major == majorMap, n: -1, key: true}
		if !h.indef {
			if h.arg > math.MaxInt32 {
				return jsplit.Event{}, s.failf(start, "container length %d too large", h.arg)
			}
			f.n = int(h.arg)
			if f.isMap {
				f.n *= 2
			}
		}
		s.item()
		s.pos += skip + h.size
		s.stk = append(s.stk, f)
		kind := jsplit.BeginArray
		if f.isMap {
			kind = jsplit.BeginObject
		}
		return jsplit.Event{Kind: kind, Span: jsplit.Span{Pos: start, End: start + skip + h.size}}, nil
	}

	n, err := itemSize(in, skip)
	if err != nil {
		return jsplit.Event{}, s.wrap(start, err)
	}
	tok, text, err := s.render(h, in[:n])
	if err != nil {
		return jsplit.Event{}, s.failf(start, "%w", err)
	}
	s.text = text
	s.item()
	s.pos += n
	ev := jsplit.Event{Kind: jsplit.Value, Token: tok, Text: text, Span: jsplit.Span{Pos: start, End: start + n}}
	if isKey {
		ev.Kind = jsplit.Member
		if tok != jsplit.String {
			ev.Token, ev.Text = jsplit.String, []byte(jsplit.Quote(string(text)))
		}
	}
	return ev, nil
}

func (s *Source) top() *frame {
	if len(s.stk) == 0 {
		return nil
	}
	return &s.stk[len(s.stk)-1]
}

// item records the start of an item in the innermost open frame.
func (s *Source) item() {
	if top := s.top(); top != nil {
		if top.n > 0 {
			top.n--
		}
		if top.isMap {
			top.key = !top.key
		}
	}
}

// close pops the innermost open frame.
func (s *Source) close(pos, end int) jsplit.Event {
	top := s.stk[len(s.stk)-1]
	s.stk = s.stk[:len(s.stk)-1]
	kind := jsplit.EndArray
	if top.isMap {
		kind = jsplit.EndObject
	}
	return jsplit.Event{Kind: kind, Span: jsplit.Span{Pos: pos, End: end}}
}

// render returns the token and JSON text of the scalar data item in raw,
// whose first untagged header is h.
func (s *Source) render(h header, raw []byte) (jsplit.Token, []byte, error) {
	s.text = s.text[:0]
	switch {
	case len(raw) == h.size && h.major == majorUint:
		return jsplit.Integer, strconv.AppendUint(s.text, h.arg, 10), nil
	case len(raw) == h.size && h.major == majorNegInt:
		if h.arg < math.MaxInt64 {
			return jsplit.Integer, strconv.AppendInt(s.text, -1-int64(h.arg), 10), nil
		}
		z := new(big.Int).SetUint64(h.arg)
		return jsplit.Integer, z.Neg(z.Add(z, big.NewInt(1))).Append(s.text, 10), nil
	}

	var v any
	if err := cbor.Unmarshal(raw, &v); err != nil {
		return jsplit.Invalid, nil, err
	}
	return s.renderValue(v)
}

func (s *Source) renderValue(v any) (jsplit.Token, []byte, error) {
	switch t := v.(type) {
	case nil:
		return jsplit.Null, append(s.text, "null"...), nil
	case bool:
		if t {
			return jsplit.True, append(s.text, "true"...), nil
		}
		return jsplit.False, append(s.text, "false"...), nil
	case uint64:
		return jsplit.Integer, strconv.AppendUint(s.text, t, 10), nil
	case int64:
		return jsplit.Integer, strconv.AppendInt(s.text, t, 10), nil
	case big.Int:
		return jsplit.Integer, t.Append(s.text, 10), nil
	case *big.Int:
		return jsplit.Integer, t.Append(s.text, 10), nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return jsplit.Null, append(s.text, "null"...), nil
		}
		return jsplit.Number, strconv.AppendFloat(s.text, t, 'g', -1, 64), nil
	case string:
		return jsplit.String, []byte(jsplit.Quote(t)), nil
	case []byte:
		return jsplit.String, strconv.AppendQuote(s.text, base64.StdEncoding.EncodeToString(t)), nil
	case time.Time:
		return jsplit.String, strconv.AppendQuote(s.text, t.UTC().Format(time.RFC3339Nano)), nil
	case cbor.SimpleValue:
		return jsplit.Integer, strconv.AppendUint(s.text, uint64(t), 10), nil
	case cbor.Tag:
		return s.renderValue(t.Content)
	case cbor.RawTag:
		var c any
		if err := cbor.Unmarshal(t.Content, &c); err != nil {
			return jsplit.Invalid, nil, err
		}
		return s.renderValue(c)
	default:
		return jsplit.Invalid, nil, fmt.Errorf("unsupported value of type %T", v)
	}
}

// A header is the decoded initial byte and argument of a data item.
type header struct {
	major byte
	info  byte
	arg   uint64
	indef bool
	size  int // total bytes of the header
}

// readHeader decodes the header at the front of in.
func readHeader(in []byte) (header, error) {
	if len(in) == 0 {
		return header{}, errShort
	}
	h := header{major: in[0] >> 5, info: in[0] & 0x1f, size: 1}
	switch {
	case h.info < 24:
		h.arg = uint64(h.info)
	case h.info <= 27:
		n := 1 << (h.info - 24)
		if len(in) < 1+n {
			return header{}, errShort
		}
		switch n {
		case 1:
			h.arg = uint64(in[1])
		case 2:
			h.arg = uint64(binary.BigEndian.Uint16(in[1:]))
		case 4:
			h.arg = uint64(binary.BigEndian.Uint32(in[1:]))
		case 8:
			h.arg = binary.BigEndian.Uint64(in[1:])
		}
		h.size += n
	case h.info == infoIndefinite:
		switch h.major {
		case majorBytes, majorText, majorArray, majorMap:
			h.indef = true
		default:
			return header{}, fmt.Errorf("invalid indefinite length for major type %d", h.major)
		}
	default:
		return header{}, fmt.Errorf("invalid additional information %d", h.info)
	}
	return h, nil
}

// itemSize reports the size in bytes of the scalar data item at the front of
// in, whose untagged header begins at offset skip.
func itemSize(in []byte, skip int) (int, error) {
	h, err := readHeader(in[skip:])
	if err != nil {
		return 0, err
	}
	i := skip + h.size
	if h.major != majorBytes && h.major != majorText {
		return i, nil
	}
	if !h.indef {
		if uint64(len(in)-i) < h.arg {
			return 0, errShort
		}
		return i + int(h.arg), nil
	}

	// An indefinite-length string is a sequence of definite-length chunks of
	// the same major type, ending with a break.
	for {
		if i >= len(in) {
			return 0, errShort
		} else if in[i] == breakByte {
			return i + 1, nil
		}
		c, err := readHeader(in[i:])
		if err != nil {
			return 0, err
		} else if c.major != h.major || c.indef {
			return 0, fmt.Errorf("invalid chunk of major type %d in indefinite string", c.major)
		}
		i += c.size
		if uint64(len(in)-i) < c.arg {
			return 0, errShort
		}
		i += int(c.arg)
	}
}

// wrap converts an error from decoding at offset pos to a syntax error,
// leaving errShort unchanged.
func (s *Source) wrap(pos int, err error) error {
	if err == errShort {
		return err
	}
	return s.failf(pos, "%w", err)
}

func (s *Source) failf(pos int, msg string, args ...any) error {
	return &SyntaxError{Offset: pos, err: fmt.Errorf(msg, args...)}
}

// SyntaxError is the concrete type of errors reported for invalid input.
type SyntaxError struct {
	Offset int // stream offset of the invalid data item

	err error
}

// Error satisfies the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("at offset %d: %v", e.Offset, e.err)
}

// Unwrap supports error wrapping.
func (e *SyntaxError) Unwrap() error { return e.err }
