package jbig2

import (
	"testing"

	"github.com/novvoo/go-pdfcore/internal/bitio"
)

// buildSmallTable constructs a 3-line table whose canonical codes are
// "0" -> 0, "10" -> 1, "11"+2 extra bits -> 2+extra; the decode tests
// below build their input bits from that derivation.
func buildSmallTable() *HuffTable {
	return BuildTable([]HuffLine{
		{PrefixLen: 1, RangeLen: 0, RangeLow: 0},
		{PrefixLen: 2, RangeLen: 0, RangeLow: 1},
		{PrefixLen: 2, RangeLen: 2, RangeLow: 2},
	})
}

func TestHuffTableDecodeShortCode(t *testing.T) {
	tbl := buildSmallTable()
	r := bitio.NewReader([]byte{0x00})
	v, oob, err := tbl.Decode(r)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if oob || v != 0 {
		t.Fatalf("got (%d,%v), want (0,false)", v, oob)
	}
}

func TestHuffTableDecodeMediumCode(t *testing.T) {
	tbl := buildSmallTable()
	r := bitio.NewReader([]byte{0x80}) // bits 1,0,...
	v, oob, err := tbl.Decode(r)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if oob || v != 1 {
		t.Fatalf("got (%d,%v), want (1,false)", v, oob)
	}
}

func TestHuffTableDecodeRangeCode(t *testing.T) {
	tbl := buildSmallTable()
	r := bitio.NewReader([]byte{0xD0}) // bits 1,1,0,1,...
	v, oob, err := tbl.Decode(r)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if oob || v != 3 {
		t.Fatalf("got (%d,%v), want (3,false)", v, oob)
	}
}

func TestHuffTableOOBLine(t *testing.T) {
	tbl := BuildTable([]HuffLine{
		{PrefixLen: 1, RangeLen: 0, RangeLow: 0},
		{PrefixLen: 1, Oob: true},
	})
	r := bitio.NewReader([]byte{0x80}) // second code, bit 1
	_, oob, err := tbl.Decode(r)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !oob {
		t.Fatalf("expected OOB")
	}
}

func TestParseCustomTableTruncated(t *testing.T) {
	// A custom table needs a flags byte followed by HTLOW/HTHIGH as
	// 32-bit signed ints; one byte alone must fail rather than panic.
	data := []byte{0x00}
	if _, err := ParseCustomTable(data); err == nil {
		t.Fatalf("expected error on truncated custom table")
	}
}
