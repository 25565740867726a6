// Package testutil defines support code for unit tests.
package testutil

import (
	"iter"
	"strings"

	"github.com/creachadair/jsplit"
)

// Chunks splits input into consecutive chunks of at most n bytes.
// It panics if n <= 0.
func Chunks(input string, n int) [][]byte {
	if n <= 0 {
		panic("testutil: chunk size must be positive")
	}
	var out [][]byte
	for len(input) > n {
		out = append(out, []byte(input[:n]))
		input = input[n:]
	}
	if input != "" {
		out = append(out, []byte(input))
	}
	return out
}

// Splits is a range function over all the ways of dividing input into two
// chunks. Either chunk may be empty.
func Splits(input string) iter.Seq2[int, [][]byte] {
	return func(yield func(int, [][]byte) bool) {
		for i := 0; i <= len(input); i++ {
			if !yield(i, [][]byte{[]byte(input[:i]), []byte(input[i:])}) {
				return
			}
		}
	}
}

// Render returns the JSON rendering of each unit in order.
func Render(units []*jsplit.Buffer) []string {
	var out []string
	for _, u := range units {
		out = append(out, u.JSON())
	}
	return out
}

// Events renders the events of b one per line, as with Event.String.
func Events(b *jsplit.Buffer) string {
	var sb strings.Builder
	for e := range b.All() {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
