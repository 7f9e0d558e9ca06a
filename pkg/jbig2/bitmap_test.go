package jbig2

import (
	"bytes"
	"testing"
)

func TestBitmapGetSetPixelBounds(t *testing.T) {
	bm := NewBitmap(4, 3)
	bm.SetPixel(1, 1, 1)
	if got := bm.GetPixel(1, 1); got != 1 {
		t.Fatalf("GetPixel(1,1) = %d, want 1", got)
	}
	if got := bm.GetPixel(-1, 0); got != 0 {
		t.Fatalf("out-of-bounds GetPixel = %d, want 0", got)
	}
	// Out-of-bounds SetPixel must not panic and must not wrap.
	bm.SetPixel(100, 100, 1)
	bm.SetPixel(-5, -5, 1)
}

func TestBitmapComposeOps(t *testing.T) {
	dst := NewBitmap(2, 1)
	dst.SetPixel(0, 0, 1)
	dst.SetPixel(1, 0, 0)
	src := NewBitmap(2, 1)
	src.SetPixel(0, 0, 1)
	src.SetPixel(1, 0, 1)

	cases := []struct {
		op   CombOp
		want [2]uint8
	}{
		{CombOR, [2]uint8{1, 1}},
		{CombAND, [2]uint8{1, 0}},
		{CombXOR, [2]uint8{0, 1}},
		{CombXNOR, [2]uint8{1, 0}},
		{CombReplace, [2]uint8{1, 1}},
	}
	for _, c := range cases {
		d := NewBitmap(2, 1)
		d.SetPixel(0, 0, 1)
		d.SetPixel(1, 0, 0)
		d.Compose(src, 0, 0, c.op)
		got := [2]uint8{d.GetPixel(0, 0), d.GetPixel(1, 0)}
		if got != c.want {
			t.Errorf("op %v: got %v, want %v", c.op, got, c.want)
		}
	}
}

func TestBitmapPackRowsMSBFirst(t *testing.T) {
	// An 8x1 bitmap equal to binary 10101010 packs to 0xAA.
	bm := NewBitmap(8, 1)
	bits := []uint8{1, 0, 1, 0, 1, 0, 1, 0}
	for x, b := range bits {
		bm.SetPixel(x, 0, b)
	}
	packed := bm.PackRows()
	if !bytes.Equal(packed, []byte{0xAA}) {
		t.Fatalf("PackRows() = %#x, want 0xAA", packed)
	}
}

func TestBitmapSubBitmap(t *testing.T) {
	src := NewBitmap(4, 2)
	src.SetPixel(2, 1, 1)
	sub := src.SubBitmap(2, 1, 2, 1)
	if sub.Width != 2 || sub.Height != 1 {
		t.Fatalf("SubBitmap dims = %dx%d, want 2x1", sub.Width, sub.Height)
	}
	if sub.GetPixel(0, 0) != 1 {
		t.Fatalf("SubBitmap(0,0) = %d, want 1", sub.GetPixel(0, 0))
	}
}
