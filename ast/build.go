// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package ast

import (
	"errors"
	"fmt"
	"io"

	"github.com/creachadair/jsplit"
	"github.com/creachadair/jsplit/internal/escape"
	"go4.org/mem"
)

// ErrExtraInput is reported by ParseSingle when the input contains more than
// one value.
var ErrExtraInput = errors.New("extra data after value")

// ErrIncomplete is reported when the input ends in the middle of a value.
var ErrIncomplete = errors.New("incomplete value")

// A Builder implements the jsplit.Handler interface to construct abstract
// syntax trees for the values reported by a sequence of events.
type Builder struct {
	stk []*node // open objects and arrays, innermost last
	out []Value // completed top-level values
}

type node struct {
	isObj bool
	obj   Object
	arr   Array
	mem   *Member // the member awaiting a value, if any
}

// Values returns the complete top-level values constructed by b.
func (b *Builder) Values() []Value { return b.out }

// Incomplete reports whether b has an object or array still open.
func (b *Builder) Incomplete() bool { return len(b.stk) != 0 }

// Reset discards the state of b so it can be reused.
func (b *Builder) Reset() { b.stk, b.out = b.stk[:0], nil }

func (b *Builder) top() *node {
	if len(b.stk) == 0 {
		return nil
	}
	return b.stk[len(b.stk)-1]
}

func (b *Builder) pop(isObj bool, e jsplit.Event) (*node, error) {
	top := b.top()
	if top == nil || top.isObj != isObj {
		return nil, fmt.Errorf("unbalanced %v", e.Kind)
	} else if top.mem != nil {
		return nil, fmt.Errorf("member %q has no value", top.mem.Key)
	}
	b.stk = b.stk[:len(b.stk)-1]
	return top, nil
}

// reduce attaches v to the innermost open value, or records it as complete.
func (b *Builder) reduce(v Value) error {
	top := b.top()
	if top == nil {
		b.out = append(b.out, v)
	} else if !top.isObj {
		top.arr = append(top.arr, v)
	} else if top.mem == nil {
		return fmt.Errorf("object value %s has no key", v.JSON())
	} else {
		top.mem.Value = v
		top.mem = nil
	}
	return nil
}

// BeginObject implements part of the jsplit.Handler interface.
func (b *Builder) BeginObject(jsplit.Event) error {
	b.stk = append(b.stk, &node{isObj: true, obj: Object{}})
	return nil
}

// EndObject implements part of the jsplit.Handler interface.
func (b *Builder) EndObject(e jsplit.Event) error {
	n, err := b.pop(true, e)
	if err != nil {
		return err
	}
	return b.reduce(n.obj)
}

// BeginArray implements part of the jsplit.Handler interface.
func (b *Builder) BeginArray(jsplit.Event) error {
	b.stk = append(b.stk, &node{arr: Array{}})
	return nil
}

// EndArray implements part of the jsplit.Handler interface.
func (b *Builder) EndArray(e jsplit.Event) error {
	n, err := b.pop(false, e)
	if err != nil {
		return err
	}
	return b.reduce(n.arr)
}

// Member implements part of the jsplit.Handler interface.
func (b *Builder) Member(e jsplit.Event) error {
	top := b.top()
	if top == nil || !top.isObj {
		return fmt.Errorf("member %s outside an object", e.Text)
	} else if top.mem != nil {
		return fmt.Errorf("member %q has no value", top.mem.Key)
	}
	key, err := unquote(e.Text)
	if err != nil {
		return fmt.Errorf("invalid key %s: %w", e.Text, err)
	}
	top.mem = Field(string(key), nil)
	top.obj = append(top.obj, top.mem)
	return nil
}

// Value implements part of the jsplit.Handler interface.
func (b *Builder) Value(e jsplit.Event) error {
	text := append([]byte(nil), e.Text...)
	switch e.Token {
	case jsplit.String:
		return b.reduce(Quoted{text: text})
	case jsplit.Integer, jsplit.Number:
		return b.reduce(Number{text: text})
	case jsplit.True, jsplit.False:
		return b.reduce(Bool(e.Token == jsplit.True))
	case jsplit.Null:
		return b.reduce(Null)
	default:
		return fmt.Errorf("unknown value %v", e.Token)
	}
}

func unquote(text []byte) ([]byte, error) {
	if len(text) < 2 || text[0] != '"' || text[len(text)-1] != '"' {
		return nil, errors.New("missing quotations")
	}
	return escape.Unquote(mem.B(text[1 : len(text)-1]))
}

// FromBuffer constructs the values recorded in buf. A buffer emitted by a
// jsplit.Tokenizer normally contains exactly one value.
func FromBuffer(buf *jsplit.Buffer) ([]Value, error) {
	var b Builder
	if err := buf.Replay(&b); err != nil {
		return nil, err
	} else if b.Incomplete() {
		return b.Values(), ErrIncomplete
	}
	return b.Values(), nil
}

const readChunkBytes = 4096

// Parse parses and returns the JSON values from r. In case of error, any
// complete values already parsed are returned along with the error.
func Parse(r io.Reader) ([]Value, error) {
	t := jsplit.NewJSON(nil)
	defer t.Close()

	var vs []Value
	add := func(units []*jsplit.Buffer) error {
		for _, u := range units {
			uv, err := FromBuffer(u)
			vs = append(vs, uv...)
			if err != nil {
				return err
			}
		}
		return nil
	}

	buf := make([]byte, readChunkBytes)
	for {
		nr, err := r.Read(buf)
		if nr > 0 {
			units, ferr := t.Feed(buf[:nr])
			if aerr := add(units); aerr != nil {
				return vs, aerr
			} else if ferr != nil {
				return vs, ferr
			}
		}
		if err == io.EOF {
			break
		} else if err != nil {
			return vs, err
		}
	}
	units, err := t.Finish()
	if aerr := add(units); aerr != nil {
		return vs, aerr
	} else if err != nil {
		return vs, err
	} else if t.Pending() != 0 {
		return vs, ErrIncomplete
	}
	return vs, nil
}

// ParseSingle parses and returns a single JSON value from r. If r contains
// data after the first value, apart from whitespace, ParseSingle returns the
// first value along with ErrExtraInput.
func ParseSingle(r io.Reader) (Value, error) {
	vs, err := Parse(r)
	if err != nil {
		return nil, err
	} else if len(vs) == 0 {
		return nil, io.ErrUnexpectedEOF
	} else if len(vs) > 1 {
		return vs[0], ErrExtraInput
	}
	return vs[0], nil
}
