// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package jsplit

import (
	"bytes"
	"fmt"
	"iter"

	json "github.com/goccy/go-json"
)

// A Buffer is an ordered, replayable recording of the events of one unit.
// The buffer holds its own copy of the text of each event.
type Buffer struct {
	events []Event
	tbuf   [][]byte // allocation pool for event text
}

// Len reports the number of events in b.
func (b *Buffer) Len() int { return len(b.events) }

// Event returns the event at offset i of b, 0 ≤ i < b.Len().
// The caller must not modify the Text of the event.
func (b *Buffer) Event(i int) Event { return b.events[i] }

// All is a range function over the events of b in order.
func (b *Buffer) All() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for _, e := range b.events {
			if !yield(e) {
				return
			}
		}
	}
}

// Kinds returns the kinds of the events of b in order.
func (b *Buffer) Kinds() []Kind {
	ks := make([]Kind, len(b.events))
	for i, e := range b.events {
		ks[i] = e.Kind
	}
	return ks
}

// add appends a copy of e to b.
func (b *Buffer) add(e Event) {
	if len(e.Text) != 0 {
		e.Text = b.copyOf(e.Text)
	}
	b.events = append(b.events, e)
}

// Replay delivers the events of b to h in order. If a method of h reports an
// error, Replay stops and returns that error.
func (b *Buffer) Replay(h Handler) error {
	for _, e := range b.events {
		var err error
		switch e.Kind {
		case BeginObject:
			err = h.BeginObject(e)
		case EndObject:
			err = h.EndObject(e)
		case BeginArray:
			err = h.BeginArray(e)
		case EndArray:
			err = h.EndArray(e)
		case Member:
			err = h.Member(e)
		case Value:
			err = h.Value(e)
		default:
			err = fmt.Errorf("unknown event kind %v", e.Kind)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// JSON renders the events of b as compact JSON text. If b contains more than
// one top-level value, the values are separated by a single space.
func (b *Buffer) JSON() string {
	var buf bytes.Buffer
	var cnt []int // values seen at each level; cnt[0] is the top level
	cnt = append(cnt, 0)
	var afterKey bool

	sep := func() {
		n := len(cnt) - 1
		if afterKey {
			afterKey = false
		} else if cnt[n] > 0 && n == 0 {
			buf.WriteByte(' ')
		} else if cnt[n] > 0 {
			buf.WriteByte(',')
		}
		cnt[n]++
	}
	for _, e := range b.events {
		switch e.Kind {
		case BeginObject:
			sep()
			buf.WriteByte('{')
			cnt = append(cnt, 0)
		case BeginArray:
			sep()
			buf.WriteByte('[')
			cnt = append(cnt, 0)
		case EndObject, EndArray:
			if len(cnt) > 1 {
				cnt = cnt[:len(cnt)-1]
			}
			if e.Kind == EndObject {
				buf.WriteByte('}')
			} else {
				buf.WriteByte(']')
			}
		case Member:
			sep()
			buf.Write(e.Text)
			buf.WriteByte(':')
			afterKey = true
		case Value:
			sep()
			buf.Write(e.Text)
		}
	}
	return buf.String()
}

// Decode decodes the unit recorded in b into v, as json.Unmarshal.
func (b *Buffer) Decode(v any) error {
	return json.Unmarshal([]byte(b.JSON()), v)
}

// String returns a human-readable summary of the events of b.
func (b *Buffer) String() string { return fmt.Sprintf("Buffer(len=%d)", len(b.events)) }

func (b *Buffer) copyOf(text []byte) []byte {
	const minBlockSlop = 4
	const smallSizeFraction = 16
	const bufBlockBytes = 4096

	// For values bigger than smallSizeFraction of the block size, don't bother
	// batching, make an outright copy.
	if len(text) >= bufBlockBytes/smallSizeFraction {
		return append([]byte(nil), text...)
	}

	// Look for a block with space enough to hold a copy of text.
	i := 0
	for i < len(b.tbuf) {
		if n := len(b.tbuf[i]) + len(text); n < cap(b.tbuf[i]) {
			break // there is room in this block
		} else if cap(b.tbuf[i])-len(b.tbuf[i]) < minBlockSlop {
			// There is no room in this block, and it is nearly full.  Replace
			// it with a fresh block; events already copied keep the old one.
			b.tbuf[i] = make([]byte, 0, bufBlockBytes)
			break
		}
		i++
	}
	if i == len(b.tbuf) {
		b.tbuf = append(b.tbuf, make([]byte, 0, bufBlockBytes))
	}
	p := len(b.tbuf[i])
	b.tbuf[i] = append(b.tbuf[i], text...)
	return b.tbuf[i][p : p+len(text) : p+len(text)]
}
