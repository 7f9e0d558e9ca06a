package dwt

import "testing"

// forward53 is the encode-side counterpart of Inverse53, used only by
// this test to exercise spec.md §8 invariant 8 (5/3 reversibility).
// The decoder itself never needs a forward transform.
func forward53(data []int32, length int) {
	if length < 2 {
		return
	}
	for i := 1; i < length-1; i += 2 {
		data[i] -= (data[i-1] + data[i+1]) >> 1
	}
	if length&1 == 0 {
		data[length-1] -= data[length-2]
	}
	data[0] += (data[1] + data[1] + 2) >> 2
	for i := 2; i < length-1; i += 2 {
		data[i] += (data[i-1] + data[i+1] + 2) >> 2
	}
	if length&1 != 0 {
		data[length-1] += (data[length-2] + data[length-2] + 2) >> 2
	}
	deinterleave(data, length)
}

func deinterleave(data []int32, length int) {
	temp := make([]int32, length)
	halfLen := (length + 1) / 2
	for i, j := 0, 0; i < length; i, j = i+2, j+1 {
		temp[j] = data[i]
	}
	for i, j := 1, halfLen; i < length; i, j = i+2, j+1 {
		temp[j] = data[i]
	}
	copy(data[:length], temp[:length])
}

func TestInverse53RoundTripsForward(t *testing.T) {
	cases := [][]int32{
		{1, 2, 3, 4, 5, 6, 7, 8},
		{10, -3, 7, 0, -5, 2, 9, -1, 4},
		{128, 128, 128, 128},
		{0},
		{5, 9},
	}
	for _, want := range cases {
		data := append([]int32(nil), want...)
		forward53(data, len(data))
		Inverse53(data, len(data))
		for i := range want {
			if data[i] != want[i] {
				t.Fatalf("round-trip mismatch at %d: got %v, want %v (input %v)", i, data, want, want)
			}
		}
	}
}

func TestInverse2D53RoundTrip(t *testing.T) {
	width, height := 4, 4
	want := []int32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}
	data := append([]int32(nil), want...)

	// Forward 2D: rows then columns (mirrors Inverse2D53's column-then-row order).
	for y := 0; y < height; y++ {
		forward53(data[y*width:(y+1)*width], width)
	}
	col := make([]int32, height)
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			col[y] = data[y*width+x]
		}
		forward53(col, height)
		for y := 0; y < height; y++ {
			data[y*width+x] = col[y]
		}
	}

	Inverse2D53(data, width, height)
	for i := range want {
		if data[i] != want[i] {
			t.Fatalf("2D round-trip mismatch at %d: got %d, want %d", i, data[i], want[i])
		}
	}
}

func TestInverse97IsFiniteAndStable(t *testing.T) {
	// Without a forward encoder, assert only that the inverse kernel is
	// numerically well-behaved on a constant input: no NaN and no value
	// beyond ±1e6.
	data := make([]float32, 8)
	for i := range data {
		data[i] = 64
	}
	Inverse97(data, len(data))
	for i, v := range data {
		if v != v || v > 1e6 || v < -1e6 {
			t.Fatalf("Inverse97 produced unstable value at %d: %v", i, v)
		}
	}
}

func TestSynthesizeConstantLL(t *testing.T) {
	lvl := Level{
		LL:      []float32{128, 128, 128, 128},
		LLWidth: 2, LLHeight: 2,
	}
	out := Synthesize(lvl, Reversible53, 4, 4)
	if len(out) != 16 {
		t.Fatalf("got %d samples, want 16", len(out))
	}
	for i, v := range out {
		if v != 128 {
			t.Fatalf("sample %d = %v, want 128 (all-LL, zero detail synthesis)", i, v)
		}
	}
}
