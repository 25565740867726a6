// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package jsplit divides an incrementally-delivered stream of structured data
// into self-contained units.
//
// # Tokenizing
//
// The Tokenizer type consumes input in chunks of any size and alignment, and
// produces a sequence of units, each recorded as a *Buffer of events.  Chunks
// need not be aligned with the values of the input: a value may span many
// chunks, and a chunk may contain many values. The units produced are the same
// however the input is divided.
//
//	t := jsplit.NewJSON(nil)
//	defer t.Close()
//	for chunk := range chunks {
//	   units, err := t.Feed(chunk)
//	   if err != nil {
//	      log.Fatalf("Feed failed: %v", err)
//	   }
//	   process(units)
//	}
//	units, err := t.Finish()
//
// Feed and Finish never wait for input: they return as soon as no further
// event can be decoded from the input delivered so far. Any error reported by
// the source is fatal to the tokenizer.
//
// For input that is already fully available, TokenizeJSON (or Tokenize, for
// an arbitrary source) combines the calls:
//
//	units, err := jsplit.TokenizeJSON(chunks, nil)
//
// # Units
//
// By default, each top-level value of the input (object, array, or scalar)
// is one unit. With the FlattenArray option, each element of a top-level
// array is its own unit and the delimiters of that array are dropped:
//
//	Input                          | WholeValue           | FlattenArray
//	------------------------------ | -------------------- | --------------
//	{"a":1}{"b":2}                 | {"a":1}, {"b":2}     | {"a":1}, {"b":2}
//	[1,2,3]                        | [1,2,3]              | 1, 2, 3
//	[{"a":1},{"b":2}]              | [{"a":1},{"b":2}]    | {"a":1}, {"b":2}
//	[[1,2],3]                      | [[1,2],3]            | [1,2] 3
//
// In FlattenArray mode, only an object or scalar element ends a unit; an
// element that is itself an array is held and emitted along with the next
// unit (see FlattenArray).
//
// If the input ends in the middle of a value, the events of that value are
// not emitted. Call Pending after Finish to check for this case.
//
// # Sources
//
// A Tokenizer reads events from a Source, an incremental parser that accepts
// input in chunks. The Parser type implements a Source for JSON, optionally
// extended with comments and trailing commas (JWCC). The cborsrc package
// implements a Source for sequences of CBOR data items.
//
// # Events
//
// Each Event reports one syntactic element of the input:
//
//	Kind                  | Description
//	--------------------- | ---------------------------------------
//	BeginObject/EndObject | { ... }
//	BeginArray/EndArray   | [ ... ]
//	Member                | an object key, "key" (quoted)
//	Value                 | true, false, null, number, string
//
// The events of a unit can be replayed to a Handler, rendered as JSON, or
// decoded into a Go value.  The ast package builds syntax trees from them.
package jsplit
