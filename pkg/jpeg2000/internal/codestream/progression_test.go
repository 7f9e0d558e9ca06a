package codestream

import "testing"

func TestProgressionSequenceLRCPOrder(t *testing.T) {
	seq := ProgressionSequence(LRCP, 2, 2, 2, []int{2, 2})
	if len(seq) != 8 {
		t.Fatalf("got %d tuples, want 8", len(seq))
	}
	// LRCP: layer outermost, then resolution, then component.
	want := []PacketTuple{
		{0, 0, 0}, {0, 0, 1}, {0, 1, 0}, {0, 1, 1},
		{1, 0, 0}, {1, 0, 1}, {1, 1, 0}, {1, 1, 1},
	}
	for i, w := range want {
		if seq[i] != w {
			t.Fatalf("index %d: got %+v, want %+v", i, seq[i], w)
		}
	}
}

func TestProgressionSequenceRLCPOrder(t *testing.T) {
	seq := ProgressionSequence(RLCP, 2, 2, 2, []int{2, 2})
	want := []PacketTuple{
		{0, 0, 0}, {0, 0, 1}, {1, 0, 0}, {1, 0, 1},
		{0, 1, 0}, {0, 1, 1}, {1, 1, 0}, {1, 1, 1},
	}
	for i, w := range want {
		if seq[i] != w {
			t.Fatalf("index %d: got %+v, want %+v", i, seq[i], w)
		}
	}
}

func TestProgressionSequenceSkipsResolutionsBeyondComponentMax(t *testing.T) {
	// Component 1 only has 1 resolution level; resolution 1 must never
	// be emitted for it.
	seq := ProgressionSequence(LRCP, 1, 2, 2, []int{2, 1})
	for _, tup := range seq {
		if tup.Component == 1 && tup.Resolution >= 1 {
			t.Fatalf("tuple %+v exceeds component 1's resolution count", tup)
		}
	}
	if len(seq) != 3 {
		t.Fatalf("got %d tuples, want 3 (2 for comp0 + 1 for comp1)", len(seq))
	}
}

func TestProgressionSequenceAllOrdersCoverSameSet(t *testing.T) {
	orders := []ProgressionOrder{LRCP, RLCP, RPCL, PCRL, CPRL}
	var sizes []int
	for _, o := range orders {
		seq := ProgressionSequence(o, 2, 3, 2, []int{3, 3})
		sizes = append(sizes, len(seq))
	}
	for _, s := range sizes {
		if s != sizes[0] {
			t.Fatalf("progression orders produced differing tuple counts: %v", sizes)
		}
	}
}
