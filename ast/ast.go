// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package ast defines an abstract syntax tree for JSON values, and a builder
// that constructs syntax trees from the events of a jsplit.Buffer.
package ast

import (
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/creachadair/jsplit/internal/escape"
	"go4.org/mem"
)

// A Value is an arbitrary JSON value.
type Value interface {
	// JSON returns the compact JSON encoding of the value.
	JSON() string
}

// An Object is a collection of key-value members.
type Object []*Member

// Find returns the first member of o with the given key, or nil.
func (o Object) Find(key string) *Member {
	for _, m := range o {
		if m.Key == key {
			return m
		}
	}
	return nil
}

// Len returns the number of members in o.
func (o Object) Len() int { return len(o) }

// JSON satisfies the Value interface.
func (o Object) JSON() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(m.JSON())
	}
	sb.WriteByte('}')
	return sb.String()
}

func (o Object) String() string { return fmt.Sprintf("Object(len=%d)", len(o)) }

// A Member is a single key-value pair belonging to an Object.
type Member struct {
	Key   string
	Value Value
}

// Field constructs an object member with the given key and value.
func Field(key string, value Value) *Member { return &Member{Key: key, Value: value} }

// JSON renders the member as a JSON object key-value pair.
func (m Member) JSON() string {
	return string(escape.Quote(mem.S(m.Key))) + ":" + m.Value.JSON()
}

func (m Member) String() string { return fmt.Sprintf("Member(key=%q)", m.Key) }

// An Array is a sequence of values.
type Array []Value

// Len returns the number of elements in a.
func (a Array) Len() int { return len(a) }

// JSON satisfies the Value interface.
func (a Array) JSON() string {
	ss := make([]string, len(a))
	for i, v := range a {
		ss[i] = v.JSON()
	}
	return "[" + strings.Join(ss, ",") + "]"
}

func (a Array) String() string { return fmt.Sprintf("Array(len=%d)", len(a)) }

// A Quoted is a string value in its quoted and escaped form.
type Quoted struct{ text []byte }

// String constructs a Quoted from the given string.
func String(s string) Quoted { return Quoted{text: escape.Quote(mem.S(s))} }

// Unquote returns the unescaped contents of q.
func (q Quoted) Unquote() string {
	dec, err := escape.Unquote(mem.B(q.text[1 : len(q.text)-1]))
	if err != nil {
		panic(err)
	}
	return string(dec)
}

// JSON satisfies the Value interface.
func (q Quoted) JSON() string { return string(q.text) }

// A Number is an integer or floating-point value.
type Number struct{ text []byte }

// Int constructs a Number from an integer.
func Int(z int64) Number { return Number{text: strconv.AppendInt(nil, z, 10)} }

// Float constructs a Number from a floating-point value. It panics if f is
// not a finite value.
func Float(f float64) Number {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		panic(fmt.Sprintf("invalid JSON number %v", f))
	}
	return Number{text: strconv.AppendFloat(nil, f, 'g', -1, 64)}
}

// IsInt reports whether n is an integer, having no fraction or exponent.
func (n Number) IsInt() bool { return !slices.ContainsFunc(n.text, isFloatByte) }

// Int64 returns n as an int64. It panics if n is not a valid int64.
func (n Number) Int64() int64 {
	v, err := strconv.ParseInt(string(n.text), 10, 64)
	if err != nil {
		panic(err)
	}
	return v
}

// Float64 returns n as a float64.
func (n Number) Float64() float64 {
	v, err := strconv.ParseFloat(string(n.text), 64)
	if err != nil {
		panic(err)
	}
	return v
}

// JSON satisfies the Value interface.
func (n Number) JSON() string { return string(n.text) }

func isFloatByte(b byte) bool { return b == '.' || b == 'e' || b == 'E' }

// A Bool is a Boolean constant, true or false.
type Bool bool

// Value returns the value of b as a bool.
func (b Bool) Value() bool { return bool(b) }

// JSON satisfies the Value interface.
func (b Bool) JSON() string { return strconv.FormatBool(bool(b)) }

// Null represents the null constant.
var Null nullValue

type nullValue struct{}

// JSON satisfies the Value interface.
func (nullValue) JSON() string { return "null" }

// ToValue converts a Go value to an equivalent Value.  It handles nil, bool,
// string, integer and floating-point types, []any, map[string]any (members
// in key order), and values that already implement Value. It panics for
// values of any other type.
func ToValue(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null
	case Value:
		return t
	case bool:
		return Bool(t)
	case string:
		return String(t)
	case float32:
		return Float(float64(t))
	case float64:
		return Float(t)
	case []any:
		a := make(Array, len(t))
		for i, e := range t {
			a[i] = ToValue(e)
		}
		return a
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		o := make(Object, len(keys))
		for i, k := range keys {
			o[i] = Field(k, ToValue(t[k]))
		}
		return o
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Number{text: strconv.AppendUint(nil, rv.Uint(), 10)}
	}
	panic(fmt.Sprintf("unsupported value type %T", v))
}
