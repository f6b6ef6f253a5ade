// Package clone holds small generic helpers for deep-copying the pointer
// and slice shapes that show up in room snapshots, so that advancing a
// room's previous-snapshot pointer never lets two snapshots alias the
// same player record.
package clone

type Cloner[T any] interface {
	Clone() T
}

// Ptr deep-clones a via its Clone method; nil stays nil.
func Ptr[T Cloner[T]](a *T) *T {
	if a == nil {
		return nil
	}
	b := (*a).Clone()
	return &b
}

// TrivialPtr copies a value behind a pointer without invoking Clone,
// for types whose shallow copy is already a deep one.
func TrivialPtr[T any](a *T) *T {
	if a == nil {
		return nil
	}
	b := *a
	return &b
}

// DeepSlice clones each element of a slice of cloneable pointers,
// preserving nil entries.
func DeepSlice[T Cloner[T]](a []*T) []*T {
	res := make([]*T, len(a))
	for i, v := range a {
		res[i] = Ptr(v)
	}
	return res
}
