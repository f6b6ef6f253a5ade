// Package opt implements the structural delta (optional-diff) model: for
// any value of a registered type, a companion "opt" value witnesses the
// fields that differ between two snapshots of that type. The package only
// supplies the generic building blocks (scalars, nullable slots, fixed
// sequences); the per-schema Diff/Apply/IntoOpt/FromOpt functions that
// compose them are produced by cmd/roomgen, mechanically, once per user
// type, with no runtime reflection.
//
// Every opt-typed value uses a nil pointer to mean "absent" (no change, or
// no value).
package opt

// Slot is the opt companion of a nullable slot N<T> whose element type T
// has opt companion O. A nil *Slot[O] means "no change at this slot"; a
// non-nil one always carries a definite answer about presence.
type Slot[O any] struct {
	Present bool
	Value   O
}

// DiffScalar implements diff for a leaf scalar type: absent iff equal.
func DiffScalar[T comparable](a, b T) *T {
	if a == b {
		return nil
	}
	v := b
	return &v
}

// ApplyScalar implements apply for a leaf scalar type.
func ApplyScalar[T any](dst *T, d *T) {
	if d == nil {
		return
	}
	*dst = *d
}

// DiffSlot implements the truth table for a nullable slot of T, given
// T's own diff/into operations (which yield T's opt companion O).
func DiffSlot[T any, O any](a, b *T, diff func(a, b T) *O, into func(T) O) *Slot[O] {
	switch {
	case a == nil && b == nil:
		return nil
	case a != nil && b != nil:
		d := diff(*a, *b)
		if d == nil {
			return nil
		}
		return &Slot[O]{Present: true, Value: *d}
	case a == nil && b != nil:
		return &Slot[O]{Present: true, Value: into(*b)}
	default: // a != nil && b == nil
		return &Slot[O]{Present: false}
	}
}

// ApplySlot implements apply for a nullable slot: a nil diff means no
// change, a diff with Present=false clears the slot, and one with
// Present=true either updates the existing value in place or materialises
// a new one via from.
func ApplySlot[T any, O any](dst **T, d *Slot[O], apply func(*T, O), from func(O) T) {
	if d == nil {
		return
	}
	if !d.Present {
		*dst = nil
		return
	}
	if *dst != nil {
		apply(*dst, d.Value)
		return
	}
	v := from(d.Value)
	*dst = &v
}

// IntoOptSlot snapshots a nullable slot as an opt Slot, always returning a
// definite value (never nil) since it represents "the whole current state",
// not a diff.
func IntoOptSlot[T any, O any](a *T, into func(T) O) *Slot[O] {
	if a == nil {
		return &Slot[O]{Present: false}
	}
	return &Slot[O]{Present: true, Value: into(*a)}
}

// FromOptSlot materialises a nullable slot from its full opt snapshot.
func FromOptSlot[T any, O any](d *Slot[O], from func(O) T) *T {
	if d == nil || !d.Present {
		return nil
	}
	v := from(d.Value)
	return &v
}

// DiffSeq implements diff for a fixed-length sequence of nullable slots.
// a and b must have equal length. The result is nil iff no index changed;
// otherwise it has the same length as a, with nil entries at unchanged
// indices: an absent entry at a position means no change at that index.
func DiffSeq[T any, O any](a, b []*T, diff func(a, b T) *O, into func(T) O) []*Slot[O] {
	if len(a) != len(b) {
		panic("opt: DiffSeq on sequences of differing length")
	}
	out := make([]*Slot[O], len(a))
	changed := false
	for i := range a {
		d := DiffSlot(a[i], b[i], diff, into)
		out[i] = d
		if d != nil {
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return out
}

// ApplySeq applies a sequence diff index-wise. A nil diff means no change
// at all; a shorter diff slice than dst only updates the indices it covers.
func ApplySeq[T any, O any](dst []*T, d []*Slot[O], apply func(*T, O), from func(O) T) {
	if d == nil {
		return
	}
	for i := range dst {
		if i < len(d) {
			ApplySlot(&dst[i], d[i], apply, from)
		}
	}
}

// IntoOptSeq snapshots every slot of a fixed-length sequence.
func IntoOptSeq[T any, O any](a []*T, into func(T) O) []*Slot[O] {
	out := make([]*Slot[O], len(a))
	for i, v := range a {
		out[i] = IntoOptSlot(v, into)
	}
	return out
}

// FromOptSeq materialises a fixed-length sequence of size n from its full
// opt snapshot.
func FromOptSeq[T any, O any](n int, d []*Slot[O], from func(O) T) []*T {
	out := make([]*T, n)
	for i := 0; i < n && i < len(d); i++ {
		out[i] = FromOptSlot(d[i], from)
	}
	return out
}

// DiffArray implements diff for a fixed-length sequence of always-present
// scalar values (as opposed to DiffSeq's nullable slots) — a board of
// cells rather than a bank of player slots. The result is nil iff no
// index changed; otherwise it has the same length as a, with nil entries
// at unchanged indices.
func DiffArray[T comparable](a, b []T) []*T {
	if len(a) != len(b) {
		panic("opt: DiffArray on sequences of differing length")
	}
	out := make([]*T, len(a))
	changed := false
	for i := range a {
		if a[i] != b[i] {
			v := b[i]
			out[i] = &v
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return out
}

// ApplyArray applies an array diff index-wise; a nil diff means no change.
func ApplyArray[T any](dst []T, d []*T) {
	if d == nil {
		return
	}
	for i := range dst {
		if i < len(d) && d[i] != nil {
			dst[i] = *d[i]
		}
	}
}

// IntoOptArray snapshots every element of a fixed-length scalar sequence.
func IntoOptArray[T any](a []T) []*T {
	out := make([]*T, len(a))
	for i := range a {
		v := a[i]
		out[i] = &v
	}
	return out
}

// FromOptArray materialises a fixed-length scalar sequence of size n from
// its full opt snapshot.
func FromOptArray[T any](n int, d []*T) []T {
	out := make([]T, n)
	for i := 0; i < n && i < len(d); i++ {
		if d[i] != nil {
			out[i] = *d[i]
		}
	}
	return out
}
