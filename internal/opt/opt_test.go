package opt

import (
	"math/rand/v2"
	"testing"
)

// point is a trivial leaf type whose opt companion is itself: diffing two
// points yields a *point that is nil iff they're equal.
type point struct{ X, Y int }

func diffPoint(a, b point) *point {
	if a == b {
		return nil
	}
	v := b
	return &v
}

func applyPoint(dst *point, d point) { *dst = d }
func intoPoint(a point) point        { return a }
func fromPoint(d point) point        { return d }

func randPoint(r *rand.Rand) point {
	return point{X: r.IntN(5), Y: r.IntN(5)}
}

func randSlot(r *rand.Rand) *point {
	if r.IntN(2) == 0 {
		return nil
	}
	p := randPoint(r)
	return &p
}

// TestDiffSlotReflexivity covers law 1: diffing a value against itself
// never produces a change.
func TestDiffSlotReflexivity(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 200; i++ {
		a := randSlot(r)
		var b *point
		if a != nil {
			v := *a
			b = &v
		}
		if d := DiffSlot(a, b, diffPoint, intoPoint); d != nil {
			t.Fatalf("DiffSlot(a, a) = %+v, want nil", d)
		}
	}
}

// TestDiffApplySlotRoundTrip covers law 2: applying diff(a,b) to a
// reproduces b, for every combination of nil/non-nil a and b.
func TestDiffApplySlotRoundTrip(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 500; i++ {
		a := randSlot(r)
		b := randSlot(r)

		d := DiffSlot(a, b, diffPoint, intoPoint)

		var dst *point
		if a != nil {
			v := *a
			dst = &v
		}
		ApplySlot(&dst, d, applyPoint, fromPoint)

		if !slotEqual(dst, b) {
			t.Fatalf("round trip failed: a=%v b=%v d=%v got=%v", a, b, d, dst)
		}
	}
}

// TestIntoFromSlotRoundTrip covers law 3: FromOptSlot(IntoOptSlot(a))
// reproduces a exactly (snapshot fidelity, independent of any prior state).
func TestIntoFromSlotRoundTrip(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))
	for i := 0; i < 200; i++ {
		a := randSlot(r)
		snap := IntoOptSlot(a, intoPoint)
		got := FromOptSlot(snap, fromPoint)
		if !slotEqual(got, a) {
			t.Fatalf("IntoOptSlot/FromOptSlot round trip failed: a=%v got=%v", a, got)
		}
	}
}

// TestDiffSlotTruthTable pins down the five rows of the truth table by name.
func TestDiffSlotTruthTable(t *testing.T) {
	p := point{X: 1, Y: 2}
	q := point{X: 3, Y: 4}

	if d := DiffSlot[point, point](nil, nil, diffPoint, intoPoint); d != nil {
		t.Fatalf("nil,nil: got %+v, want nil", d)
	}
	if d := DiffSlot(&p, &p, diffPoint, intoPoint); d != nil {
		t.Fatalf("same,same: got %+v, want nil", d)
	}
	if d := DiffSlot(&p, &q, diffPoint, intoPoint); d == nil || !d.Present || d.Value != q {
		t.Fatalf("present,present,changed: got %+v, want Present Value=%v", d, q)
	}
	if d := DiffSlot[point, point](nil, &q, diffPoint, intoPoint); d == nil || !d.Present || d.Value != q {
		t.Fatalf("nil,present: got %+v, want Present Value=%v", d, q)
	}
	if d := DiffSlot(&p, nil, diffPoint, intoPoint); d == nil || d.Present {
		t.Fatalf("present,nil: got %+v, want absent marker", d)
	}
}

// TestDiffSeqMarksOnlyChangedIndices covers law 4 (composition): a
// sequence diff is nil exactly when no element changed, and otherwise
// carries nil entries at every unchanged index.
func TestDiffSeqMarksOnlyChangedIndices(t *testing.T) {
	a := []*point{{X: 1}, {X: 2}, nil}
	b := []*point{{X: 1}, {X: 99}, nil}

	d := DiffSeq(a, b, diffPoint, intoPoint)
	if d == nil {
		t.Fatalf("expected non-nil seq diff")
	}
	if d[0] != nil {
		t.Fatalf("index 0 unchanged, want nil diff, got %+v", d[0])
	}
	if d[1] == nil || !d[1].Present || d[1].Value != (point{X: 99}) {
		t.Fatalf("index 1 changed, got %+v", d[1])
	}
	if d[2] != nil {
		t.Fatalf("index 2 unchanged (nil,nil), want nil diff, got %+v", d[2])
	}

	if d := DiffSeq(a, a, diffPoint, intoPoint); d != nil {
		t.Fatalf("identical sequences: got %+v, want nil", d)
	}
}

func TestApplySeqRoundTrip(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 8))
	for i := 0; i < 100; i++ {
		n := 4
		a := make([]*point, n)
		b := make([]*point, n)
		for j := 0; j < n; j++ {
			a[j] = randSlot(r)
			b[j] = randSlot(r)
		}

		d := DiffSeq(a, b, diffPoint, intoPoint)

		dst := make([]*point, n)
		for j, v := range a {
			if v != nil {
				p := *v
				dst[j] = &p
			}
		}
		ApplySeq(dst, d, applyPoint, fromPoint)

		for j := range dst {
			if !slotEqual(dst[j], b[j]) {
				t.Fatalf("index %d: a=%v b=%v d=%v got=%v", j, a[j], b[j], d, dst[j])
			}
		}
	}
}

// TestDiffArrayMarksOnlyChangedCells covers the always-present scalar
// sequence variant of law 4 — used for grid-shaped room fields rather
// than a bank of nullable player slots.
func TestDiffArrayMarksOnlyChangedCells(t *testing.T) {
	a := []int{1, 2, 3}
	b := []int{1, 99, 3}

	d := DiffArray(a, b)
	if d == nil {
		t.Fatalf("expected non-nil array diff")
	}
	if d[0] != nil || d[2] != nil {
		t.Fatalf("unchanged cells should carry nil diffs, got %+v", d)
	}
	if d[1] == nil || *d[1] != 99 {
		t.Fatalf("index 1 changed, got %+v", d[1])
	}

	if d := DiffArray(a, a); d != nil {
		t.Fatalf("identical arrays: got %+v, want nil", d)
	}
}

func TestApplyArrayRoundTrip(t *testing.T) {
	r := rand.New(rand.NewPCG(9, 10))
	for i := 0; i < 200; i++ {
		n := 9
		a := make([]int, n)
		b := make([]int, n)
		for j := 0; j < n; j++ {
			a[j] = r.IntN(3)
			b[j] = r.IntN(3)
		}

		d := DiffArray(a, b)
		dst := append([]int(nil), a...)
		ApplyArray(dst, d)

		for j := range dst {
			if dst[j] != b[j] {
				t.Fatalf("index %d: a=%v b=%v d=%v got=%v", j, a[j], b[j], d, dst[j])
			}
		}
	}
}

func TestIntoFromArrayRoundTrip(t *testing.T) {
	a := []int{0, 1, 2, 0, 1}
	snap := IntoOptArray(a)
	got := FromOptArray(len(a), snap)
	for i := range a {
		if got[i] != a[i] {
			t.Fatalf("index %d: want %v got %v", i, a[i], got[i])
		}
	}
}

func slotEqual(a, b *point) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
