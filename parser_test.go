// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jsplit_test

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/creachadair/jsplit"
	"github.com/creachadair/jsplit/internal/testutil"
	"github.com/google/go-cmp/cmp"
)

// parseAll delivers input to p in chunks of n bytes, and returns the events
// reported, one per line.
func parseAll(p *jsplit.Parser, input string, n int) (string, error) {
	var sb strings.Builder
	drain := func() error {
		for {
			ev, err := p.Next()
			if err != nil {
				return err
			}
			fmt.Fprintln(&sb, ev)
		}
	}
	for _, chunk := range testutil.Chunks(input, n) {
		if err := p.Feed(chunk); err != nil {
			return sb.String(), err
		}
		if err := drain(); err != jsplit.ErrMoreInput {
			return sb.String(), err
		}
	}
	p.EndOfInput()
	if err := drain(); err != io.EOF {
		return sb.String(), err
	}
	return sb.String(), nil
}

func TestParser(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"   ", ""},

		{"true false null", `
Value true <true>
Value false <false>
Value null <null>`},

		{`0 5 -6.32 0.1e-2`, `
Value integer <0>
Value integer <5>
Value number <-6.32>
Value number <0.1e-2>`},

		{`"" "a b c" "a\tb" "a\u0020b"`, `
Value string <"">
Value string <"a b c">
Value string <"a\tb">
Value string <"a\u0020b">`},

		{`{}`, "BeginObject\nEndObject"},

		{`{"a":15}`, `
BeginObject
Member string <"a">
Value integer <15>
EndObject`},

		{`{"x":null, "y":[true]}`, `
BeginObject
Member string <"x">
Value null <null>
Member string <"y">
BeginArray
Value true <true>
EndArray
EndObject`},

		{`[]`, "BeginArray\nEndArray"},

		{`[[], {}, [{"a": [1]}]]`, `
BeginArray
BeginArray
EndArray
BeginObject
EndObject
BeginArray
BeginObject
Member string <"a">
BeginArray
Value integer <1>
EndArray
EndObject
EndArray
EndArray`},

		{`{"love": true} [] "ok"`, `
BeginObject
Member string <"love">
Value true <true>
EndObject
BeginArray
EndArray
Value string <"ok">`},
	}

	for _, test := range tests {
		for n := 1; n <= len(test.input)+1; n++ {
			got, err := parseAll(jsplit.NewParser(), test.input, n)
			if err != nil {
				t.Errorf("Parse %#q by %d failed: %v", test.input, n, err)
				continue
			}
			if diff := diffStrings(test.want, got); diff != "" {
				t.Errorf("Input: %#q by %d\nOutput: (-want, +got)\n%s", test.input, n, diff)
			}
		}
	}
}

func TestParserErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
		estr  string
	}{
		// Various kinds of unbalanced object bits.
		{`{`, `BeginObject`,
			`at 1:1: expected "}" or string, got EOF`},
		{`}`, ``, `at 1:0: unexpected "}"`},
		{`{false:1}`, `BeginObject`,
			`at 1:1: expected "}" or string, got false`},
		{`{"true":}`, `
BeginObject
Member string <"true">`,
			`at 1:8: unexpected "}"`},
		{`{"true":1,`, `
BeginObject
Member string <"true">
Value integer <1>`,
			`at 1:10: expected string, got EOF`},
		{`{"a" 1}`, `
BeginObject
Member string <"a">`,
			`at 1:5: expected ":", got integer`},

		// Unbalanced array bits.
		{`[`, `BeginArray`,
			`at 1:1: expected more input, got EOF`},
		{`]`, ``, `at 1:0: unexpected "]"`},
		{`[15,`, `
BeginArray
Value integer <15>`,
			`at 1:4: expected more input, got EOF`},
		{`[15,]`, `
BeginArray
Value integer <15>`,
			`at 1:4: unexpected "]"`},
		{`[1 2]`, `
BeginArray
Value integer <1>`,
			`at 1:3: expected "]" or ",", got integer`},
		{`[1}`, `
BeginArray
Value integer <1>`,
			`at 1:2: expected "]" or ",", got "}"`},

		// Invalid values.
		{`1 2.0 forthright`, `
Value integer <1>
Value number <2.0>`,
			`at 1:6: unknown constant "forthright" (offset 6)`},
		{`"what did you`, ``,
			`at 1:0: unexpected end of input in string (offset 13)`},
		{"[1,\n  /* no */]", `
BeginArray
Value integer <1>`,
			`at 2:2: unexpected '/' (offset 6)`},
	}

	for _, test := range tests {
		for _, n := range []int{1, 3, len(test.input)} {
			p := jsplit.NewParser()
			got, err := parseAll(p, test.input, n)
			if err == nil {
				t.Errorf("Parse %#q by %d did not report an error", test.input, n)
				continue
			}
			if diff := diffStrings(test.want, got); diff != "" {
				t.Errorf("Input: %#q by %d\nOutput: (-want, +got)\n%s", test.input, n, diff)
			}
			if diff := diffStrings(test.estr, err.Error()); diff != "" {
				t.Errorf("Input: %#q by %d\nError: (-want, +got)\n%s", test.input, n, diff)
			}

			var serr *jsplit.SyntaxError
			if !errors.As(err, &serr) {
				t.Errorf("Error: got %T, want *SyntaxError", err)
			}

			// Errors are sticky.
			if _, again := p.Next(); again != err {
				t.Errorf("Next after error: got %v, want %v", again, err)
			}
			if ferr := p.Feed([]byte("{}")); ferr != err {
				t.Errorf("Feed after error: got %v, want %v", ferr, err)
			}
		}
	}
}

func TestParserUnexpectedEOF(t *testing.T) {
	_, err := parseAll(jsplit.NewParser(), `{"a": [1, 2`, 4)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Parse: got %v, want %v", err, io.ErrUnexpectedEOF)
	}
}

func TestParserJWCC(t *testing.T) {
	const input = `// leading comment
{
  "a": 1, /* one */
  "b": [true, false,], // trailing commas
}
[/* empty */]`
	const want = `
BeginObject
Member string <"a">
Value integer <1>
Member string <"b">
BeginArray
Value true <true>
Value false <false>
EndArray
EndObject
BeginArray
EndArray`

	for n := 1; n <= len(input); n++ {
		p := jsplit.NewParser()
		p.AllowComments(true)
		p.AllowTrailingCommas(true)
		got, err := parseAll(p, input, n)
		if err != nil {
			t.Fatalf("Parse by %d failed: %v", n, err)
		}
		if diff := diffStrings(want, got); diff != "" {
			t.Errorf("Input by %d: (-want, +got)\n%s", n, diff)
		}
	}

	t.Run("Strict", func(t *testing.T) {
		_, err := parseAll(jsplit.NewParser(), `[1,]`, 4)
		if err == nil || err.Error() != `at 1:3: unexpected "]"` {
			t.Errorf("Parse: got %v, want unexpected bracket", err)
		}
	})
}

func TestParserSpans(t *testing.T) {
	type evPos struct {
		Kind jsplit.Kind
		Span jsplit.Span
	}
	const input = `{"a":1} [ true ]`
	want := []evPos{
		{jsplit.BeginObject, jsplit.Span{Pos: 0, End: 1}},
		{jsplit.Member, jsplit.Span{Pos: 1, End: 4}},
		{jsplit.Value, jsplit.Span{Pos: 5, End: 6}},
		{jsplit.EndObject, jsplit.Span{Pos: 6, End: 7}},
		{jsplit.BeginArray, jsplit.Span{Pos: 8, End: 9}},
		{jsplit.Value, jsplit.Span{Pos: 10, End: 14}},
		{jsplit.EndArray, jsplit.Span{Pos: 15, End: 16}},
	}

	// Offsets are relative to the whole stream regardless of chunking.
	for _, n := range []int{1, 2, 5, len(input)} {
		p := jsplit.NewParser()
		var got []evPos
		for _, chunk := range testutil.Chunks(input, n) {
			if err := p.Feed(chunk); err != nil {
				t.Fatalf("Feed: unexpected error: %v", err)
			}
			for {
				ev, err := p.Next()
				if err == jsplit.ErrMoreInput {
					break
				} else if err != nil {
					t.Fatalf("Next: unexpected error: %v", err)
				}
				got = append(got, evPos{ev.Kind, ev.Span})
			}
		}
		p.EndOfInput()
		for {
			ev, err := p.Next()
			if err == io.EOF {
				break
			} else if err != nil {
				t.Fatalf("Next: unexpected error: %v", err)
			}
			got = append(got, evPos{ev.Kind, ev.Span})
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Spans by %d: (-want, +got)\n%s", n, diff)
		}
	}
}

func TestParserDepth(t *testing.T) {
	p := jsplit.NewParser()
	if err := p.Feed([]byte(`{"a": [[1`)); err != nil {
		t.Fatalf("Feed: unexpected error: %v", err)
	}
	for {
		if _, err := p.Next(); err == jsplit.ErrMoreInput {
			break
		} else if err != nil {
			t.Fatalf("Next: unexpected error: %v", err)
		}
	}
	if got := p.Depth(); got != 3 {
		t.Errorf("Depth: got %d, want 3", got)
	}
}

func TestParserFeedAfterEnd(t *testing.T) {
	p := jsplit.NewParser()
	p.EndOfInput()
	if _, err := p.Next(); err != io.EOF {
		t.Errorf("Next: got %v, want %v", err, io.EOF)
	}
	if err := p.Feed([]byte("1")); err == nil {
		t.Error("Feed after end of input: got nil, want error")
	}
}

func diffStrings(want, got string) string {
	return cmp.Diff(strings.Split(strings.TrimSpace(want), "\n"),
		strings.Split(strings.TrimSpace(got), "\n"))
}
