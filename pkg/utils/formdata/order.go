package formdata

import "slices"

// Move exchanges elem with the element delta positions away. When |delta| > 1
// only the two ends of the span are exchanged; elements in between stay put.
// Out of range targets and absent elements leave s untouched.
func Move[T comparable](s []T, elem T, delta int) {
	index := slices.Index(s, elem)
	if index < 0 {
		return
	}

	newIndex := index + delta
	if newIndex < 0 || newIndex >= len(s) {
		return
	}

	lo, hi := min(index, newIndex), max(index, newIndex)
	s[lo], s[hi] = s[hi], s[lo]
}

// Orderer is implemented by elements carrying a 1-based position
type Orderer interface {
	SetOrder(order int)
}

// RefreshFieldOrder sets the order of every element to its 1-based index in s
func RefreshFieldOrder[T Orderer](s []T) {
	for i, elem := range s {
		elem.SetOrder(i + 1)
	}
}
