package jbig2

import (
	"bytes"
	"testing"
)

// buildSegment assembles one short-form segment header (1-byte referred
// count, 1-byte page association, no file header) followed by data.
func buildSegment(number uint32, typ SegmentType, pageAssoc uint8, data []byte) []byte {
	var out []byte
	out = append(out,
		byte(number>>24), byte(number>>16), byte(number>>8), byte(number))
	out = append(out, byte(typ)) // flags: type only, short page assoc
	out = append(out, 0x00)      // referred-to flags: count 0
	out = append(out, pageAssoc)
	n := uint32(len(data))
	out = append(out, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	out = append(out, data...)
	return out
}

func TestDecodeEmptyPageNoRegions(t *testing.T) {
	pageInfo := []byte{
		0x00, 0x00, 0x00, 0x08, // width = 8
		0x00, 0x00, 0x00, 0x01, // height = 1
		0x00, 0x00, 0x00, 0x00, // x resolution
		0x00, 0x00, 0x00, 0x00, // y resolution
		0x00,       // flags: default pixel 0
		0x00, 0x00, // striping (unused by this decoder)
	}
	stream := append(
		buildSegment(0, SegPageInfo, 1, pageInfo),
		buildSegment(1, SegEndOfFile, 1, nil)...,
	)

	out, w, h, err := Decode(stream, nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if w != 8 || h != 1 {
		t.Fatalf("dims = %dx%d, want 8x1", w, h)
	}
	// An all-zero page, inverted by the final XOR 0xFF, packs to 0xFF.
	if !bytes.Equal(out, []byte{0xFF}) {
		t.Fatalf("output = %#x, want [0xFF]", out)
	}
}

func TestDecodeNoPageInfoFails(t *testing.T) {
	stream := buildSegment(0, SegEndOfFile, 1, nil)
	if _, _, _, err := Decode(stream, nil); err == nil {
		t.Fatalf("expected error when no page-info segment is present")
	}
}

func TestDecodeUnknownSegmentTypeSkipped(t *testing.T) {
	pageInfo := []byte{
		0x00, 0x00, 0x00, 0x04,
		0x00, 0x00, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00,
		0x00, 0x00,
	}
	stream := append(
		buildSegment(0, SegPageInfo, 1, pageInfo),
		buildSegment(1, SegmentType(63), 1, []byte{0xDE, 0xAD})...,
	)
	_, w, h, err := Decode(stream, nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if w != 4 || h != 1 {
		t.Fatalf("dims = %dx%d, want 4x1", w, h)
	}
}

func TestGrowPageForExpandsWidthAndHeight(t *testing.T) {
	st := newDecodeState()
	st.page = NewBitmap(2, 2)
	st.page.SetPixel(1, 1, 1)
	st.growPageFor(3, 3, 2, 2) // needs width 5, height 5
	if st.page.Width != 5 || st.page.Height != 5 {
		t.Fatalf("grown dims = %dx%d, want 5x5", st.page.Width, st.page.Height)
	}
	if st.page.GetPixel(1, 1) != 1 {
		t.Fatalf("existing content lost after growth")
	}
}
