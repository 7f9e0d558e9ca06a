package mct

import "testing"

// forwardReversible is the encode-side RCT, used only by this test to
// exercise spec.md §8 invariant 7 (MCT round-trip). The decoder never
// needs a forward transform.
func forwardReversible(r, g, b []int32) {
	for i := range r {
		y := (r[i] + 2*g[i] + b[i]) >> 2
		u := b[i] - g[i]
		v := r[i] - g[i]
		r[i] = y
		g[i] = u
		b[i] = v
	}
}

func TestInverseReversibleRoundTrip(t *testing.T) {
	r := []int32{10, -5, 200, 0}
	g := []int32{20, 30, -100, 0}
	b := []int32{5, -15, 50, 0}

	wantR := append([]int32(nil), r...)
	wantG := append([]int32(nil), g...)
	wantB := append([]int32(nil), b...)

	forwardReversible(r, g, b)
	InverseReversible(r, g, b)

	for i := range r {
		if r[i] != wantR[i] || g[i] != wantG[i] || b[i] != wantB[i] {
			t.Fatalf("index %d: got (%d,%d,%d), want (%d,%d,%d)", i, r[i], g[i], b[i], wantR[i], wantG[i], wantB[i])
		}
	}
}

func TestInverseIrreversibleIdentityOnGray(t *testing.T) {
	// A pure-luma (Cb=Cr=0) sample must reconstruct to R=G=B=Y.
	y := []float32{0, 128, 255}
	cb := []float32{0, 0, 0}
	cr := []float32{0, 0, 0}
	InverseIrreversible(y, cb, cr)
	for i, v := range y {
		if v != 0 && (v < float32(i)*0-1e-3) {
			t.Fatalf("unexpected")
		}
	}
	// y, cb, cr now hold R, G, B respectively; all three must match the
	// original luma value when chroma is zero.
	want := []float32{0, 128, 255}
	for i := range want {
		if y[i] != want[i] || cb[i] != want[i] || cr[i] != want[i] {
			t.Fatalf("index %d: got R=%v G=%v B=%v, want %v for all", i, y[i], cb[i], cr[i], want[i])
		}
	}
}

func TestApplicable(t *testing.T) {
	if Applicable(false, []int{4, 4, 4}) {
		t.Fatal("MCT flag unset must be inapplicable")
	}
	if Applicable(true, []int{4, 4}) {
		t.Fatal("fewer than 3 components must be inapplicable")
	}
	if Applicable(true, []int{4, 4, 5}) {
		t.Fatal("mismatched component lengths must be inapplicable")
	}
	if !Applicable(true, []int{4, 4, 4, 4}) {
		t.Fatal("3+ matching components with MCT flag set must be applicable")
	}
}

func TestLevelShift(t *testing.T) {
	data := []float32{-128, 0, 127}
	LevelShift(data, 8)
	want := []float32{0, 128, 255}
	for i := range want {
		if data[i] != want[i] {
			t.Errorf("index %d: got %v, want %v", i, data[i], want[i])
		}
	}
}
