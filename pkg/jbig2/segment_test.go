package jbig2

import (
	"testing"

	"github.com/novvoo/go-pdfcore/internal/bitio"
)

func TestHasFileHeader(t *testing.T) {
	good := append([]byte{0x97, 0x4A, 0x42, 0x32, 0x0D, 0x0A, 0x1A, 0x0A}, 0x01)
	if !hasFileHeader(good) {
		t.Fatalf("expected magic to be recognized")
	}
	if hasFileHeader([]byte{0x00, 0x01, 0x02}) {
		t.Fatalf("did not expect magic in arbitrary bytes")
	}
	if hasFileHeader(nil) {
		t.Fatalf("did not expect magic in empty input")
	}
}

func TestReadSegmentHeaderShortForm(t *testing.T) {
	// Segment number 1, flags byte: type=48 (page info), 1-byte page
	// assoc (bit 0x40 clear). Referred-to flags byte: count=0 (top 3
	// bits zero). Page association byte: 1. Data length: 19.
	data := []byte{
		0x00, 0x00, 0x00, 0x01, // segment number
		48,                     // flags: type 48, short page assoc
		0x00,                   // referred-to flags: count 0
		0x01,                   // page association
		0x00, 0x00, 0x00, 0x13, // data length = 19
	}
	r := bitio.NewReader(data)
	hdr, err := readSegmentHeader(r)
	if err != nil {
		t.Fatalf("readSegmentHeader: %v", err)
	}
	if hdr.Number != 1 {
		t.Errorf("Number = %d, want 1", hdr.Number)
	}
	if hdr.Type != SegPageInfo {
		t.Errorf("Type = %d, want %d", hdr.Type, SegPageInfo)
	}
	if len(hdr.Referred) != 0 {
		t.Errorf("Referred = %v, want empty", hdr.Referred)
	}
	if hdr.PageAssoc != 1 {
		t.Errorf("PageAssoc = %d, want 1", hdr.PageAssoc)
	}
	if hdr.DataLength != 19 {
		t.Errorf("DataLength = %d, want 19", hdr.DataLength)
	}
}

func TestReadSegmentHeaderWithReferredSegments(t *testing.T) {
	// Segment number 5, type 6 (immediate text region), referred-to
	// count 2 (top 3 bits of the flags byte = 010), two 1-byte referred
	// segment numbers (since this segment's own number <= 256), 1-byte
	// page association, data length 0.
	data := []byte{
		0x00, 0x00, 0x00, 0x05, // segment number
		6,           // flags: type 6
		0x40,        // referred-to flags: count=2 (0b010_00000)
		0x01, 0x02,  // referred segment numbers
		0x01,        // page association
		0x00, 0x00, 0x00, 0x00, // data length
	}
	r := bitio.NewReader(data)
	hdr, err := readSegmentHeader(r)
	if err != nil {
		t.Fatalf("readSegmentHeader: %v", err)
	}
	if hdr.Type != SegTextRegionImmediate {
		t.Errorf("Type = %d, want %d", hdr.Type, SegTextRegionImmediate)
	}
	if len(hdr.Referred) != 2 || hdr.Referred[0] != 1 || hdr.Referred[1] != 2 {
		t.Errorf("Referred = %v, want [1 2]", hdr.Referred)
	}
}

func TestReadSegmentHeaderTruncated(t *testing.T) {
	r := bitio.NewReader([]byte{0x00, 0x00, 0x00})
	if _, err := readSegmentHeader(r); err == nil {
		t.Fatalf("expected error on truncated segment header")
	}
}
