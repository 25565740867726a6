// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package jsplit

import (
	"errors"
	"io"
	"log/slog"
)

// Options are settings for a Tokenizer. A nil *Options is ready for use and
// provides default values as described.
type Options struct {
	// If true, emit one unit for each element of a top-level array rather
	// than one unit for the whole array (see FlattenArray).
	FlattenArray bool

	// If non-nil, receives debug-level records about the units emitted by
	// the tokenizer. If nil, nothing is logged.
	Logger *slog.Logger
}

func (o *Options) mode() Mode {
	if o != nil && o.FlattenArray {
		return FlattenArray
	}
	return WholeValue
}

func (o *Options) logger() *slog.Logger {
	if o == nil || o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// A Tokenizer divides the events of a Source into units, each recorded in its
// own Buffer.  Input is delivered to the tokenizer in chunks by calling Feed,
// and the end of input is signaled by calling Finish.  Chunks may be of any
// size and need not be aligned with values in the input; the units produced
// do not depend on how the input is divided.
//
// A Tokenizer is not safe for concurrent use by multiple goroutines.
type Tokenizer struct {
	src   Source
	mode  Mode
	log   *slog.Logger
	depth Depth
	cur   *Buffer
	err   error
}

// New constructs a Tokenizer that consumes events from src.  It will panic
// if src == nil.
func New(src Source, opts *Options) *Tokenizer {
	if src == nil {
		panic("jsplit: nil source")
	}
	return &Tokenizer{
		src:  src,
		mode: opts.mode(),
		log:  opts.logger(),
		cur:  new(Buffer),
	}
}

// NewJSON constructs a Tokenizer that consumes JSON text.
func NewJSON(opts *Options) *Tokenizer { return New(NewParser(), opts) }

// Mode reports the mode in which t divides its input.
func (t *Tokenizer) Mode() Mode { return t.mode }

// Depth reports the current nesting depth of t.
func (t *Tokenizer) Depth() Depth { return t.depth }

// Pending reports the number of events recorded for a unit that is not yet
// complete.  After Finish, a non-zero value means the input ended inside a
// value, and the events of that value were not emitted.
func (t *Tokenizer) Pending() int {
	if t.cur == nil {
		return 0
	}
	return t.cur.Len()
}

// Feed delivers a chunk of input to the tokenizer, and returns the units
// completed by it, if any.  Feed does not retain data.
//
// If the source reports an error, Feed returns any units completed before the
// error along with that error. An error is fatal: all subsequent calls to Feed
// and Finish report the same error.
func (t *Tokenizer) Feed(data []byte) ([]*Buffer, error) {
	if t.err != nil {
		return nil, t.err
	}
	if err := t.src.Feed(data); err != nil {
		t.err = err
		return nil, err
	}
	return t.drain()
}

// Finish signals the end of input to the tokenizer, and returns the units
// completed thereby, if any.  Events left over for a value that was not
// complete at the end of the input are not emitted (see Pending).
func (t *Tokenizer) Finish() ([]*Buffer, error) {
	if t.err != nil {
		return nil, t.err
	}
	t.src.EndOfInput()
	out, err := t.drain()
	if err == nil && t.Pending() != 0 {
		t.log.Debug("incomplete unit at end of input",
			"events", t.Pending(), "depth", t.depth.String())
	}
	return out, err
}

// Close releases the resources held by t.  If the source implements
// io.Closer, Close closes it. After Close, Feed and Finish report an error.
// Close may be called more than once.
func (t *Tokenizer) Close() error {
	if t.cur == nil {
		return nil
	}
	t.cur = nil
	if t.err == nil {
		t.err = errors.New("tokenizer is closed")
	}
	if c, ok := t.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// drain consumes all the events currently available from the source.
func (t *Tokenizer) drain() ([]*Buffer, error) {
	var out []*Buffer
	for {
		ev, err := t.src.Next()
		if err == ErrMoreInput || err == io.EOF {
			return out, nil
		} else if err != nil {
			t.err = err
			return out, err
		}
		t.depth = t.depth.Next(ev.Kind)
		keep, emit := t.mode.Boundary(t.depth, ev.Kind)
		if keep {
			t.cur.add(ev)
		}
		if emit {
			out = append(out, t.take())
		}
	}
}

// take returns the current buffer and replaces it with an empty one.
func (t *Tokenizer) take() *Buffer {
	b := t.cur
	t.cur = new(Buffer)
	t.log.Debug("unit complete", "mode", t.mode.String(), "events", b.Len())
	return b
}

// Tokenize divides the events of src into units. It delivers each of the
// given chunks in order, followed by the end of input, and returns the
// concatenated results.  In case of error, any units completed before the
// error are returned along with the error.
func Tokenize(src Source, chunks [][]byte, opts *Options) ([]*Buffer, error) {
	t := New(src, opts)
	defer t.Close()

	var all []*Buffer
	for _, chunk := range chunks {
		bs, err := t.Feed(chunk)
		all = append(all, bs...)
		if err != nil {
			return all, err
		}
	}
	bs, err := t.Finish()
	return append(all, bs...), err
}

// TokenizeJSON divides the JSON text delivered in chunks into units.
// It is shorthand for Tokenize with a new Parser.
func TokenizeJSON(chunks [][]byte, opts *Options) ([]*Buffer, error) {
	return Tokenize(NewParser(), chunks, opts)
}
