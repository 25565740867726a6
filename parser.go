// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jsplit

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// A Parser is an incremental JSON parser. It consumes input delivered in
// chunks and reports the structure of the input as a sequence of events.
// A Parser implements the Source interface.
//
// The input may contain any number of consecutive JSON values.  The parser
// ensures that objects and arrays are correctly balanced, and reports a
// *SyntaxError otherwise. Once a syntax error has been reported, the parser
// reports the same error for all subsequent calls.
type Parser struct {
	s      *Scanner
	tcomma bool // allow trailing commas in objects and arrays
	closed bool // EndOfInput has been called
	stk    []frame
	err    error
}

// A frame records the expected next token for an open object or array.
type frame struct {
	open  Token // LBrace or LSquare
	state state
}

type state byte

const (
	arrayFirst  state = iota // after "[": value or "]"
	arrayElem                // after ",": value
	arrayNext                // after a value: "," or "]"
	objectFirst              // after "{": key or "}"
	objectKey                // after ",": key
	objectColon              // after a key: ":"
	objectValue              // after ":": value
	objectNext               // after a value: "," or "}"
)

// NewParser constructs a new Parser with no buffered input.
func NewParser() *Parser { return &Parser{s: NewScanner()} }

// AllowComments configures the scanner associated with p to accept (true) or
// reject (false) comments. Comments are discarded by the parser.
func (p *Parser) AllowComments(ok bool) { p.s.AllowComments(ok) }

// AllowTrailingCommas configures the parser to allow (true) or reject (false)
// trailing commas in objects and arrays.
func (p *Parser) AllowTrailingCommas(ok bool) { p.tcomma = ok }

// Feed delivers a chunk of input to the parser. It implements part of the
// Source interface.
func (p *Parser) Feed(data []byte) error {
	if p.err != nil {
		return p.err
	} else if p.closed {
		return errors.New("feed after end of input")
	}
	p.s.Feed(data)
	return nil
}

// EndOfInput signals that no more input will be delivered.  It implements
// part of the Source interface.
func (p *Parser) EndOfInput() {
	p.closed = true
	p.s.EndOfInput()
}

// Depth reports the number of objects and arrays currently open.
func (p *Parser) Depth() int { return len(p.stk) }

// Next returns the next complete event from the input. It returns
// ErrMoreInput if more input is required to decode an event, and io.EOF
// after EndOfInput once the input has been fully consumed.  In case of a
// syntax error, the returned error has type [*SyntaxError].
func (p *Parser) Next() (_ Event, err error) {
	if p.err != nil {
		return Event{}, p.err
	}
	defer p.recoverParseError(&err)

	for {
		err := p.s.Next()
		if err == ErrMoreInput {
			return Event{}, err
		} else if err == io.EOF {
			if len(p.stk) != 0 {
				p.syntaxError(io.ErrUnexpectedEOF, "%v", p.expected(err))
			}
			return Event{}, err
		} else if err != nil {
			p.syntaxError(err, "%v", err)
		}

		tok := p.s.Token()
		if tok == LineComment || tok == BlockComment {
			continue // discard comments
		}
		if ev, ok := p.step(tok); ok {
			return ev, nil
		}
	}
}

// step advances the parser state for tok, and reports the resulting event if
// there is one.
func (p *Parser) step(tok Token) (Event, bool) {
	if len(p.stk) == 0 {
		return p.parseValue(tok), true
	}
	top := &p.stk[len(p.stk)-1]
	switch top.state {
	case arrayFirst:
		if tok == RSquare {
			return p.close(EndArray), true
		}
		return p.parseValue(tok), true

	case arrayElem:
		// If trailing commas are allowed and the next token is a close bracket,
		// consider this a valid end of the array.
		if tok == RSquare && p.tcomma {
			return p.close(EndArray), true
		}
		return p.parseValue(tok), true

	case arrayNext:
		p.require(tok, RSquare, Comma)
		if tok == RSquare {
			return p.close(EndArray), true
		}
		top.state = arrayElem

	case objectFirst, objectKey:
		if tok == RBrace && (top.state == objectFirst || p.tcomma) {
			return p.close(EndObject), true
		}
		if top.state == objectFirst {
			p.require(tok, RBrace, String)
		} else {
			p.require(tok, String)
		}
		top.state = objectColon
		return p.event(Member, tok), true

	case objectColon:
		p.require(tok, Colon)
		top.state = objectValue

	case objectValue:
		return p.parseValue(tok), true

	case objectNext:
		p.require(tok, RBrace, Comma)
		if tok == RBrace {
			return p.close(EndObject), true
		}
		top.state = objectKey
	}
	return Event{}, false
}

// parseValue handles the first token of a value.
func (p *Parser) parseValue(tok Token) Event {
	switch tok {
	case LBrace:
		p.stk = append(p.stk, frame{open: LBrace, state: objectFirst})
		return p.event(BeginObject, Invalid)
	case LSquare:
		p.stk = append(p.stk, frame{open: LSquare, state: arrayFirst})
		return p.event(BeginArray, Invalid)
	case Integer, Number, String, True, False, Null:
		p.complete()
		return p.event(Value, tok)
	case RBrace, RSquare, Comma, Colon:
		p.syntaxError(nil, "unexpected %v", tok)
	default:
		p.syntaxError(nil, "unknown token %v", tok)
	}
	panic("unreachable")
}

// close pops the innermost open object or array.
func (p *Parser) close(kind Kind) Event {
	p.stk = p.stk[:len(p.stk)-1]
	p.complete()
	return p.event(kind, Invalid)
}

// complete records that a value has ended in the innermost open object or
// array, if any.
func (p *Parser) complete() {
	if n := len(p.stk); n > 0 {
		if top := &p.stk[n-1]; top.open == LSquare {
			top.state = arrayNext
		} else {
			top.state = objectNext
		}
	}
}

func (p *Parser) event(kind Kind, tok Token) Event {
	ev := Event{Kind: kind, Token: tok, Span: p.s.Span()}
	if tok != Invalid {
		ev.Text = p.s.Text()
	}
	return ev
}

func (p *Parser) require(tok Token, tokens ...Token) {
	if !slices.Contains(tokens, tok) {
		p.syntaxError(nil, "%v", tokLabel(tokens, tok))
	}
}

// expected describes what the parser wanted in place of got.
func (p *Parser) expected(got any) string {
	if len(p.stk) == 0 {
		return tokLabel(nil, got)
	}
	switch p.stk[len(p.stk)-1].state {
	case arrayNext:
		return tokLabel([]Token{RSquare, Comma}, got)
	case objectFirst:
		return tokLabel([]Token{RBrace, String}, got)
	case objectKey:
		return tokLabel([]Token{String}, got)
	case objectColon:
		return tokLabel([]Token{Colon}, got)
	case objectNext:
		return tokLabel([]Token{RBrace, Comma}, got)
	default:
		return fmt.Sprintf("expected more input, got %v", got)
	}
}

func (p *Parser) recoverParseError(errp *error) {
	if serr := recover(); serr != nil {
		if err, ok := serr.(*SyntaxError); ok {
			p.err = err
			*errp = err
			return
		}
		panic(serr)
	}
}

func (p *Parser) syntaxError(err error, msg string, args ...any) {
	panic(&SyntaxError{
		Location: p.s.Location().First,
		Message:  fmt.Sprintf(msg, args...),
		err:      err,
	})
}

// tokLabel makes a human-readable summary string for the given token types.
func tokLabel(tokens []Token, got any) string {
	if len(tokens) == 0 {
		return fmt.Sprint(got)
	}
	var exp string
	if len(tokens) == 1 {
		exp = tokens[0].String()
	} else {
		last := len(tokens) - 1
		ss := make([]string, len(tokens)-1)
		for i, tok := range tokens[:last] {
			ss[i] = tok.String()
		}
		exp = strings.Join(ss, ", ") + " or " + tokens[last].String()
	}
	return fmt.Sprintf("expected %s, got %v", exp, got)
}

// SyntaxError is the concrete type of errors reported by the parser.
type SyntaxError struct {
	Location LineCol
	Message  string

	err error
}

// Error satisfies the error interface.
func (s *SyntaxError) Error() string {
	return fmt.Sprintf("at %s: %s", s.Location, s.Message)
}

// Unwrap supports error wrapping.
func (s *SyntaxError) Unwrap() error { return s.err }
