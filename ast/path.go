// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

package ast

import "fmt"

// Path traverses a sequence of nested object and array values rooted at v,
// and returns the value at the end of the path. Each element of the path
// must be one of:
//
//   - a string, selecting the first member of an object with that key
//   - an int, selecting an offset of an array; negative offsets count from
//     the end of the array
//   - a func(Value) (Value, error), which is applied to the current value
//
// If the path cannot be followed, Path returns v along with an error. It
// panics if a path element has any other type.
func Path(v Value, path ...any) (Value, error) {
	cur := v
	for i, elt := range path {
		next, err := pathStep(cur, elt)
		if err != nil {
			return v, fmt.Errorf("path element %d: %w", i, err)
		}
		cur = next
	}
	return cur, nil
}

func pathStep(v Value, elt any) (Value, error) {
	switch t := elt.(type) {
	case string:
		obj, ok := v.(Object)
		if !ok {
			return nil, fmt.Errorf("got %T, want object", v)
		}
		m := obj.Find(t)
		if m == nil {
			return nil, fmt.Errorf("key %q not found", t)
		}
		return m.Value, nil

	case int:
		arr, ok := v.(Array)
		if !ok {
			return nil, fmt.Errorf("got %T, want array", v)
		}
		idx := t
		if idx < 0 {
			idx += len(arr)
		}
		if idx < 0 || idx >= len(arr) {
			return nil, fmt.Errorf("index %d out of range (0..%d)", t, len(arr))
		}
		return arr[idx], nil

	case func(Value) (Value, error):
		return t(v)

	default:
		panic(fmt.Sprintf("invalid path element %T", elt))
	}
}
