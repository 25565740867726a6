// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package jsplit

// Mode selects how a Tokenizer divides a stream of events into units.
type Mode byte

const (
	// WholeValue emits one unit for each top-level value of the input,
	// whether an object, an array, or a scalar.
	WholeValue Mode = iota

	// FlattenArray emits one unit for each element of a top-level array.
	// The delimiters of the outermost array are dropped. Top-level values
	// that are not arrays are emitted as in WholeValue.
	//
	// An element that is itself an array does not end a unit: its events are
	// held until the next object or scalar element at the same level ends,
	// and both are emitted together. Array elements that are not followed by
	// such an element are never emitted.
	FlattenArray
)

func (m Mode) String() string {
	switch m {
	case WholeValue:
		return "WholeValue"
	case FlattenArray:
		return "FlattenArray"
	default:
		return "Invalid"
	}
}

// Boundary reports, for an event of kind k after which the depth is d,
// whether the event belongs in the current unit (keep) and whether the
// current unit is complete once the event has been handled (emit).
func (m Mode) Boundary(d Depth, k Kind) (keep, emit bool) {
	if m == FlattenArray {
		// The outermost array is structurally implicit, its delimiters do
		// not appear in any unit.
		outer := d.Object == 0 && ((k == BeginArray && d.Array == 1) || (k == EndArray && d.Array == 0))
		emit = d.Object == 0 && (d.Array == 0 || d.Array == 1) && (k == EndObject || k == Value)
		return !outer, emit
	}
	end := k == EndObject || k == EndArray || k == Value
	return true, end && d.IsTop()
}
