// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package jsplit

// Kind is the syntactic kind of an Event.
type Kind byte

// Constants defining the valid Kind values.
const (
	BeginObject Kind = iota + 1 // start of an object
	EndObject                   // end of an object
	BeginArray                  // start of an array
	EndArray                    // end of an array
	Member                      // object member key
	Value                       // scalar value
)

var kindStr = [...]string{
	BeginObject: "BeginObject",
	EndObject:   "EndObject",
	BeginArray:  "BeginArray",
	EndArray:    "EndArray",
	Member:      "Member",
	Value:       "Value",
}

func (k Kind) String() string {
	if k == 0 || int(k) >= len(kindStr) {
		return "Invalid"
	}
	return kindStr[k]
}

// An Event is a single syntactic event reported by a Source.
type Event struct {
	Kind Kind

	// For Member and Value events, the lexical type of the key or value:
	// String for keys, one of String, Integer, Number, True, False, or Null
	// for values. For other kinds it is Invalid.
	Token Token

	// For Member and Value events, the undecoded JSON text of the key or
	// value. Strings are quoted. For other kinds it is empty.
	Text []byte

	// The location of the event in the input stream.
	Span Span
}

func (e Event) String() string {
	switch e.Kind {
	case Member, Value:
		return e.Kind.String() + " " + e.Token.String() + " <" + string(e.Text) + ">"
	default:
		return e.Kind.String()
	}
}

// A Source is an incremental producer of events.  Input is delivered to a
// Source in chunks of arbitrary size and alignment by calling Feed, and the
// end of input is signaled by calling EndOfInput.
//
// Each call to Next returns the next complete event. If no event can be
// decoded from the input delivered so far, Next returns ErrMoreInput.  After
// EndOfInput, once all events have been delivered, Next returns io.EOF. Any
// other error is fatal, and the Source should not be used further.
//
// The Text of an event returned by Next is only valid until the next call of
// Next or Feed; the caller must copy it if it is needed for longer.
type Source interface {
	// Feed delivers a chunk of input. The Source does not retain data.
	Feed(data []byte) error

	// EndOfInput signals that no further input will be delivered.
	EndOfInput()

	// Next returns the next available event.
	Next() (Event, error)
}

// A Handler receives the events of a Buffer in order when it is replayed.  If
// a method reports an error, the replay stops and that error is returned to
// the caller.
type Handler interface {
	// Begin a new object.
	BeginObject(e Event) error

	// End the most-recently-opened object.
	EndObject(e Event) error

	// Begin a new array.
	BeginArray(e Event) error

	// End the most-recently-opened array.
	EndArray(e Event) error

	// Begin a new object member, whose key is e.Text. The text of the key is
	// still quoted; the handler is responsible for unquoting it if the plain
	// string is required (see jsplit.Unquote).
	Member(e Event) error

	// Report a scalar value. String values are quoted.
	Value(e Event) error
}
