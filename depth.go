// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package jsplit

import "fmt"

// Depth records the nesting depth of objects and arrays at a point in a
// stream of events. The zero value is the depth at the top level.
//
// Depth is not clamped: an unbalanced end event makes a count negative.
// Sources are expected to reject such input before it is observed.
type Depth struct {
	Object int // number of open objects
	Array  int // number of open arrays
}

// Next returns the depth after observing an event of kind k at d.
func (d Depth) Next(k Kind) Depth {
	switch k {
	case BeginObject:
		d.Object++
	case EndObject:
		d.Object--
	case BeginArray:
		d.Array++
	case EndArray:
		d.Array--
	}
	return d
}

// IsTop reports whether d is at the top level.
func (d Depth) IsTop() bool { return d.Object == 0 && d.Array == 0 }

func (d Depth) String() string { return fmt.Sprintf("Depth(object=%d, array=%d)", d.Object, d.Array) }
