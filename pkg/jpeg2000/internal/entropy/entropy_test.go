package entropy

import "testing"

func TestZeroCodingContextLLNoNeighbors(t *testing.T) {
	if ctx := zeroCodingContext(BandLL, 0); ctx != 0 {
		t.Fatalf("all-insignificant neighbors: got context %d, want 0", ctx)
	}
}

func TestZeroCodingContextLLTwoHorizontal(t *testing.T) {
	// W and E both significant: h=2 -> context 8, per Annex D.3.1 Table D.1.
	packed := uint8(0x01 | 0x02)
	if ctx := zeroCodingContext(BandLL, packed); ctx != 8 {
		t.Fatalf("h=2: got context %d, want 8", ctx)
	}
}

func TestZeroCodingContextHLSwapsAxes(t *testing.T) {
	// In HL, the roles of horizontal/vertical counts are swapped relative
	// to LL/LH, so two significant vertical neighbors (N+S) should land
	// in the same bucket LL would assign to two horizontal neighbors.
	vertical := uint8(0x04 | 0x08) // N | S
	horizontal := uint8(0x01 | 0x02) // W | E

	hl := zeroCodingContext(BandHL, vertical)
	ll := zeroCodingContext(BandLL, horizontal)
	if hl != ll {
		t.Fatalf("HL(N|S)=%d should equal LL(W|E)=%d", hl, ll)
	}
}

func TestZeroCodingContextHHUsesSum(t *testing.T) {
	// HH bands key off h+v regardless of orientation: one horizontal and
	// one vertical neighbor should land in the same bucket as two
	// horizontal neighbors (both give h+v==2, no diagonals).
	oneEach := uint8(0x01 | 0x04)   // W | N
	twoHoriz := uint8(0x01 | 0x02)  // W | E
	if a, b := zeroCodingContext(BandHH, oneEach), zeroCodingContext(BandHH, twoHoriz); a != b {
		t.Fatalf("HH h+v==2 buckets differ: %d vs %d", a, b)
	}
}

func TestSignCodingContextNoNeighbors(t *testing.T) {
	ctx, pred := signCodingContext(0, 0)
	if ctx != ctxSC0 || pred != 0 {
		t.Fatalf("(0,0): got ctx=%d pred=%d, want ctxSC0,0", ctx, pred)
	}
}

func TestSignCodingContextNineCases(t *testing.T) {
	cases := []struct {
		hc, vc   int
		ctx      int
		pred     int
	}{
		{1, 1, ctxSC4, 0},
		{1, 0, ctxSC3, 0},
		{1, -1, ctxSC2, 0},
		{0, 1, ctxSC1, 0},
		{0, 0, ctxSC0, 0},
		{0, -1, ctxSC1, 1},
		{-1, 1, ctxSC2, 1},
		{-1, 0, ctxSC3, 1},
		{-1, -1, ctxSC4, 1},
	}
	for _, c := range cases {
		ctx, pred := signCodingContext(c.hc, c.vc)
		if ctx != c.ctx || pred != c.pred {
			t.Errorf("(%d,%d): got ctx=%d pred=%d, want ctx=%d pred=%d", c.hc, c.vc, ctx, pred, c.ctx, c.pred)
		}
	}
}

func TestSignCodingContextAntisymmetric(t *testing.T) {
	// Negating both contributions must keep the same context but flip
	// the prediction bit, since sign coding only tracks a dominant
	// magnitude pattern plus an XOR'd polarity.
	for hc := -1; hc <= 1; hc++ {
		for vc := -1; vc <= 1; vc++ {
			ctx1, pred1 := signCodingContext(hc, vc)
			ctx2, pred2 := signCodingContext(-hc, -vc)
			if ctx1 != ctx2 {
				t.Errorf("ctx mismatch for (%d,%d) vs negation: %d vs %d", hc, vc, ctx1, ctx2)
			}
			if hc != 0 || vc != 0 {
				if pred1 == pred2 {
					t.Errorf("pred should flip under negation for (%d,%d)", hc, vc)
				}
			}
		}
	}
}

func TestMagnitudeRefinementContextProgression(t *testing.T) {
	d := &blockDecoder{w: 3, h: 3, stride: 5}
	d.flags = make([]coefFlags, d.stride*(d.h+2))

	if ctx := d.mrContext(1, 1); ctx != ctxMag0 {
		t.Fatalf("no neighbor, not refined: got %d, want ctxMag0", ctx)
	}

	d.set(0, 1, flagSig) // west neighbor of (1,1) becomes significant
	if ctx := d.mrContext(1, 1); ctx != ctxMag1 {
		t.Fatalf("significant neighbor, not refined: got %d, want ctxMag1", ctx)
	}

	d.set(1, 1, flagRefine)
	if ctx := d.mrContext(1, 1); ctx != ctxMag2 {
		t.Fatalf("already refined: got %d, want ctxMag2", ctx)
	}
}

func TestDecodeZeroBitPlanesYieldsZeroGrid(t *testing.T) {
	cb := &CodeBlockState{X0: 0, Y0: 0, X1: 4, Y1: 4, CodedData: nil}
	if err := Decode(cb, 0, BandLL); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(cb.Data) != 16 {
		t.Fatalf("got %d coefficients, want 16", len(cb.Data))
	}
	for i, v := range cb.Data {
		if v != 0 {
			t.Fatalf("coefficient %d = %d, want 0", i, v)
		}
	}
}

func TestDecodeRejectsDegenerateGeometry(t *testing.T) {
	cb := &CodeBlockState{X0: 0, Y0: 0, X1: 0, Y1: 4}
	if err := Decode(cb, 4, BandLL); err != ErrInvalid {
		t.Fatalf("got %v, want ErrInvalid", err)
	}
}

func TestStepSizeFormula(t *testing.T) {
	// R_b=epsilon, mu=0 -> Delta = 1.
	if got := StepSize(5, 5, 0); got != 1.0 {
		t.Fatalf("StepSize(5,5,0) = %v, want 1.0", got)
	}
	// One extra bit of dynamic range doubles the step.
	if got := StepSize(6, 5, 0); got != 2.0 {
		t.Fatalf("StepSize(6,5,0) = %v, want 2.0", got)
	}
	// Mantissa contributes a fractional scale above 1.
	got := StepSize(5, 5, 1024) // mu/2048 == 0.5
	if got < 1.49 || got > 1.51 {
		t.Fatalf("StepSize(5,5,1024) = %v, want ~1.5", got)
	}
}

func TestDequantizeScalesMagnitudes(t *testing.T) {
	out := Dequantize([]int32{0, 1, -2, 100}, 0.5)
	want := []float32{0, 0.5, -1, 50}
	for i := range out {
		if out[i] != want[i] {
			t.Errorf("Dequantize[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}
