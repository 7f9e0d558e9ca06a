package jbig2

import (
	"fmt"

	"github.com/novvoo/go-pdfcore/internal/arith"
	"github.com/novvoo/go-pdfcore/internal/bitio"
)

// RefCorner selects which corner of a symbol instance is placed at the
// computed (S,T) coordinate, per spec.md §4.8.
type RefCorner uint8

const (
	CornerBottomLeft RefCorner = iota
	CornerTopLeft
	CornerBottomRight
	CornerTopRight
)

// TextRegionParams carries the parameters of spec.md §4.8, named after
// jdeng-gojbig2's TRDProc fields (see DESIGN.md).
type TextRegionParams struct {
	SBW, SBH       int
	SBDefPixel     uint8
	SBCombOp       CombOp
	SBNumInstances int
	SBStrips       int // one of 1,2,4,8
	RefCorner      RefCorner
	Transposed     bool
	SBDSOffset     int32

	SBSyms       []*Bitmap
	SBSymCodeLen int

	SBRefine    bool
	SBRTemplate int
	SBRAT       [2]ATPixel

	SBHuff          bool
	HuffFS, HuffDS, HuffDT                     *HuffTable
	HuffRDW, HuffRDH, HuffRDX, HuffRDY, HuffRSize *HuffTable
	SymCodeTable    *HuffTable
}

// DecodeTextRegionArith implements the arithmetic-coded path of spec.md
// §4.8, allocating fresh context state.
func DecodeTextRegionArith(dec *arith.Decoder, p TextRegionParams) (*Bitmap, error) {
	rc := &refinementContexts{}
	return decodeTextRegionArithShared(dec, p, rc)
}

// decodeTextRegionArithShared is the shared implementation used both by
// the standalone text-region segment decoder and by the symbol
// dictionary's refinement-aggregate path (spec.md §9 design note: they
// must share the same IAID/IARDX/IARDY context bundle).
func decodeTextRegionArithShared(dec *arith.Decoder, p TextRegionParams, rc *refinementContexts) (*Bitmap, error) {
	if p.SBW <= 0 || p.SBH <= 0 {
		return nil, fmt.Errorf("%w: invalid text region dimensions %dx%d", ErrRegion, p.SBW, p.SBH)
	}
	region := NewBitmap(p.SBW, p.SBH)
	region.Fill(p.SBDefPixel)

	var iadt, iafs, iads, iait, iari, iardw, iardh ArithIntDecoder
	if rc.iaid == nil {
		rc.iaid = NewArithIAIDDecoder(p.SBSymCodeLen)
	}
	if rc.refineCX == nil && p.SBRefine {
		rc.refineCX = make([]arith.Context, 1<<13)
	}

	dt, _ := iadt.Decode(dec)
	stripT := -dt * int32(p.SBStrips)
	firstS := int32(0)
	nInstances := 0

	for nInstances < p.SBNumInstances {
		dtv, _ := iadt.Decode(dec)
		stripT += dtv * int32(p.SBStrips)

		first := true
		curS := int32(0)
		for {
			if first {
				dfs, _ := iafs.Decode(dec)
				firstS += dfs
				curS = firstS
				first = false
			} else {
				ids, oob := iads.Decode(dec)
				if oob {
					break
				}
				curS += ids + p.SBDSOffset
			}

			curT := int32(0)
			if p.SBStrips != 1 {
				curT, _ = iait.Decode(dec)
			}
			t := stripT + curT

			id := rc.iaid.Decode(dec)
			sym, err := symbolAt(p.SBSyms, nil, int(id))
			if err != nil {
				return nil, err
			}

			ib := sym
			if p.SBRefine {
				r, _ := iari.Decode(dec)
				if r != 0 {
					rdw, _ := iardw.Decode(dec)
					rdh, _ := iardh.Decode(dec)
					rdx, _ := rc.iardx.Decode(dec)
					rdy, _ := rc.iardy.Decode(dec)
					newW := sym.Width + int(rdw)
					newH := sym.Height + int(rdh)
					offX := int(rdw)/2 + int(rdx)
					offY := int(rdh)/2 + int(rdy)
					ib, err = DecodeRefinementRegion(dec, rc.refineCX, RefinementParams{
						Width: newW, Height: newH, Template: p.SBRTemplate, AT: p.SBRAT,
						Reference: sym, RefDX: offX, RefDY: offY,
					})
					if err != nil {
						return nil, err
					}
				}
			}

			placeSymbol(region, ib, &curS, t, p.Transposed, p.RefCorner, p.SBCombOp)
			nInstances++
			if nInstances >= p.SBNumInstances {
				break
			}
		}
	}
	return region, nil
}

// placeSymbol implements the eight placement cases of spec.md §4.8 /
// §6.4.5 step (viii): it adjusts curS by the symbol's extent before
// and/or after placement depending on transposition and reference
// corner, then composites ib into region with op.
func placeSymbol(region, ib *Bitmap, curS *int32, t int32, transposed bool, corner RefCorner, op CombOp) {
	w, h := ib.Width, ib.Height
	s := *curS

	var x, y int
	if !transposed {
		switch corner {
		case CornerTopLeft:
			x, y = int(s), int(t)
		case CornerBottomLeft:
			x, y = int(s), int(t)-h+1
		case CornerTopRight:
			s += int32(w) - 1
			x, y = int(s)-w+1, int(t)
		case CornerBottomRight:
			s += int32(w) - 1
			x, y = int(s)-w+1, int(t)-h+1
		}
	} else {
		switch corner {
		case CornerTopLeft:
			x, y = int(t), int(s)
		case CornerTopRight:
			x, y = int(t)-w+1, int(s)
		case CornerBottomLeft:
			s += int32(h) - 1
			x, y = int(t), int(s)-h+1
		case CornerBottomRight:
			s += int32(h) - 1
			x, y = int(t)-w+1, int(s)-h+1
		}
	}

	region.Compose(ib, x, y, op)

	if !transposed {
		if corner == CornerTopLeft || corner == CornerBottomLeft {
			s += int32(w) - 1
		}
	} else {
		if corner == CornerTopLeft || corner == CornerTopRight {
			s += int32(h) - 1
		}
	}
	*curS = s
}

// BuildSymbolIDTable implements spec.md §4.3's symbol-ID RUNCODE table
// (§7.4.3.1.7): 35 RUNCODE lengths are read, a RUNCODE Huffman table is
// built, then one RUNCODE per symbol determines its final code length
// (with escapes 32/33/34 for run-length repetition), after which the
// canonical symbol table is built from the resulting lengths.
func BuildSymbolIDTable(r *bitio.Reader, numSyms int) (*HuffTable, error) {
	var runLens [35]int
	for i := range runLens {
		v, err := r.ReadBits(4)
		if err != nil {
			return nil, fmt.Errorf("%w: runcode length %d: %v", ErrHuffman, i, err)
		}
		runLens[i] = int(v)
	}
	runLines := make([]HuffLine, 35)
	for i := range runLines {
		runLines[i] = HuffLine{PrefixLen: runLens[i], RangeLen: 0, RangeLow: int32(i)}
	}
	runTable := BuildTable(runLines)

	lengths := make([]int, numSyms)
	prevLen := 0
	i := 0
	for i < numSyms {
		code, _, err := runTable.Decode(r)
		if err != nil {
			return nil, err
		}
		switch {
		case code < 32:
			lengths[i] = int(code)
			prevLen = int(code)
			i++
		case code == 32:
			n, err := r.ReadBits(2)
			if err != nil {
				return nil, fmt.Errorf("%w: runcode 32 extra bits: %v", ErrHuffman, err)
			}
			repeat := int(n) + 3
			for k := 0; k < repeat && i < numSyms; k++ {
				lengths[i] = prevLen
				i++
			}
		case code == 33:
			n, err := r.ReadBits(3)
			if err != nil {
				return nil, fmt.Errorf("%w: runcode 33 extra bits: %v", ErrHuffman, err)
			}
			repeat := int(n) + 3
			for k := 0; k < repeat && i < numSyms; k++ {
				lengths[i] = 0
				i++
			}
		case code == 34:
			n, err := r.ReadBits(7)
			if err != nil {
				return nil, fmt.Errorf("%w: runcode 34 extra bits: %v", ErrHuffman, err)
			}
			repeat := int(n) + 11
			for k := 0; k < repeat && i < numSyms; k++ {
				lengths[i] = 0
				i++
			}
		default:
			return nil, fmt.Errorf("%w: invalid runcode %d", ErrHuffman, code)
		}
	}

	lines := make([]HuffLine, numSyms)
	for i, l := range lengths {
		lines[i] = HuffLine{PrefixLen: l, RangeLen: 0, RangeLow: int32(i)}
	}
	r.Align()
	return BuildTable(lines), nil
}
