package jbig2

import (
	"fmt"

	"github.com/novvoo/go-pdfcore/internal/bitio"
)

// HuffLine is one line of a Huffman table definition: a prefix code of
// PrefixLen bits selects RangeLen extra bits to be added to (or, for
// Lower, subtracted below) RangeLow. Oob lines carry no extra bits.
type HuffLine struct {
	PrefixLen int
	RangeLen  int
	RangeLow  int32
	Lower     bool // range covers (-inf, RangeLow] rather than [RangeLow, ...)
	Oob       bool
}

// huffNode is the tagged-variant binary tree of spec.md §9's design
// note: either an intermediate with two (possibly nil) children, or a
// leaf carrying one HuffLine.
type huffNode struct {
	zero, one *huffNode
	leaf      *HuffLine
}

// HuffTable is a decodable canonical Huffman code built from a set of
// HuffLines, per spec.md §4.3.
type HuffTable struct {
	root *huffNode
}

// assignedCode pairs a line with its canonical prefix code.
type assignedCode struct {
	line *HuffLine
	code uint32
}

// BuildTable assigns canonical prefix codes to lines (spec.md §4.3's
// canonical-Huffman algorithm, Annex B.3) and builds the decode tree.
// Lines with PrefixLen == 0 take no code (never selected) and are
// skipped, matching the standard's treatment of unused lines.
func BuildTable(lines []HuffLine) *HuffTable {
	maxLen := 0
	for i := range lines {
		if lines[i].PrefixLen > maxLen {
			maxLen = lines[i].PrefixLen
		}
	}
	countAtLen := make([]int, maxLen+2)
	for i := range lines {
		if lines[i].PrefixLen > 0 {
			countAtLen[lines[i].PrefixLen]++
		}
	}
	firstCode := make([]uint32, maxLen+2)
	for l := 1; l <= maxLen; l++ {
		firstCode[l] = (firstCode[l-1] + uint32(countAtLen[l-1])) << 1
	}
	assigned := make([]assignedCode, 0, len(lines))
	next := append([]uint32(nil), firstCode...)
	for i := range lines {
		l := lines[i].PrefixLen
		if l == 0 {
			continue
		}
		assigned = append(assigned, assignedCode{line: &lines[i], code: next[l]})
		next[l]++
	}

	t := &HuffTable{root: &huffNode{}}
	for _, a := range assigned {
		t.insert(a.line, a.code)
	}
	return t
}

func (t *HuffTable) insert(line *HuffLine, code uint32) {
	n := t.root
	for i := line.PrefixLen - 1; i >= 0; i-- {
		bit := (code >> uint(i)) & 1
		if bit == 0 {
			if n.zero == nil {
				n.zero = &huffNode{}
			}
			n = n.zero
		} else {
			if n.one == nil {
				n.one = &huffNode{}
			}
			n = n.one
		}
	}
	n.leaf = line
}

// Decode walks the tree bit-by-bit from r, then reads the leaf's extra
// range bits and returns the resulting value, or reports OOB, per
// spec.md §4.3's "Decode" paragraph.
func (t *HuffTable) Decode(r *bitio.Reader) (value int32, oob bool, err error) {
	n := t.root
	for {
		if n.leaf != nil {
			break
		}
		if n.zero == nil && n.one == nil {
			return 0, false, fmt.Errorf("%w: huffman code not found in table", ErrHuffman)
		}
		bit, err := r.ReadBit()
		if err != nil {
			return 0, false, fmt.Errorf("%w: %v", ErrHuffman, err)
		}
		if bit == 0 {
			if n.zero == nil {
				return 0, false, fmt.Errorf("%w: huffman code not found in table", ErrHuffman)
			}
			n = n.zero
		} else {
			if n.one == nil {
				return 0, false, fmt.Errorf("%w: huffman code not found in table", ErrHuffman)
			}
			n = n.one
		}
	}
	line := n.leaf
	if line.Oob {
		return 0, true, nil
	}
	if line.RangeLen == 0 {
		return line.RangeLow, false, nil
	}
	extra, err := r.ReadBits(line.RangeLen)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrHuffman, err)
	}
	if line.Lower {
		return line.RangeLow - int32(extra), false, nil
	}
	return line.RangeLow + int32(extra), false, nil
}

// ParseCustomTable parses a custom Huffman table from a tables segment
// (segment type 53), per spec.md §4.3's "Custom tables" paragraph
// (Annex B.2).
func ParseCustomTable(data []byte) (*HuffTable, error) {
	r := bitio.NewReader(data)
	flags, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: table flags: %v", ErrHuffman, err)
	}
	htOOB := flags&0x01 != 0
	htPS := int((flags>>1)&0x07) + 1
	htRS := int((flags>>4)&0x07) + 1

	htLow, err := r.ReadSignedBits(32)
	if err != nil {
		return nil, fmt.Errorf("%w: HTLOW: %v", ErrHuffman, err)
	}
	htHigh, err := r.ReadSignedBits(32)
	if err != nil {
		return nil, fmt.Errorf("%w: HTHIGH: %v", ErrHuffman, err)
	}

	var lines []HuffLine
	cur := htLow
	for cur < htHigh {
		prefLen, err := r.ReadBits(htPS)
		if err != nil {
			return nil, fmt.Errorf("%w: line prefix length: %v", ErrHuffman, err)
		}
		rangeLen, err := r.ReadBits(htRS)
		if err != nil {
			return nil, fmt.Errorf("%w: line range length: %v", ErrHuffman, err)
		}
		lines = append(lines, HuffLine{
			PrefixLen: int(prefLen),
			RangeLen:  int(rangeLen),
			RangeLow:  cur,
		})
		cur += int32(1) << uint(rangeLen)
	}

	lowPrefLen, err := r.ReadBits(htPS)
	if err != nil {
		return nil, fmt.Errorf("%w: lower-range prefix length: %v", ErrHuffman, err)
	}
	lines = append(lines, HuffLine{PrefixLen: int(lowPrefLen), RangeLen: 32, RangeLow: htLow - 1, Lower: true})

	highPrefLen, err := r.ReadBits(htPS)
	if err != nil {
		return nil, fmt.Errorf("%w: upper-range prefix length: %v", ErrHuffman, err)
	}
	lines = append(lines, HuffLine{PrefixLen: int(highPrefLen), RangeLen: 32, RangeLow: htHigh})

	if htOOB {
		oobPrefLen, err := r.ReadBits(htPS)
		if err != nil {
			return nil, fmt.Errorf("%w: OOB prefix length: %v", ErrHuffman, err)
		}
		lines = append(lines, HuffLine{PrefixLen: int(oobPrefLen), Oob: true})
	}

	return BuildTable(lines), nil
}
