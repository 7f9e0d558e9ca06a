package jbig2

import (
	"fmt"

	"github.com/novvoo/go-pdfcore/internal/arith"
	"github.com/novvoo/go-pdfcore/internal/bitio"
)

// SymbolDictParams carries the segment-level flags of spec.md §4.6,
// named after jdeng-gojbig2's SDDProc fields (see DESIGN.md).
type SymbolDictParams struct {
	SDHUFF      bool
	SDREFAGG    bool
	SDRTEMPLATE int
	SDTEMPLATE  int
	SDAT        [4]ATPixel
	SDRAT       [2]ATPixel

	NumExSyms  int
	NumNewSyms int

	InputSymbols []*Bitmap

	// Huffman table selections (only meaningful when SDHUFF is true).
	HuffDH, HuffDW, HuffBMSize, HuffAggInst *HuffTable
}

// refinementContexts bundles the IAID/IARDX/IARDY/generic-refinement
// context state shared between the single-symbol-refinement path
// (spec.md §4.7) and the multi-instance path routed through the text
// region decoder (spec.md §4.8), per spec.md §9's design note. One is
// created per decode; its IAID decoder is allocated on first use.
type refinementContexts struct {
	iaid        *ArithIAIDDecoder
	iardx       ArithIntDecoder
	iardy       ArithIntDecoder
	refineCX    []arith.Context
}

// symCodeLenFor computes SBSYMCODELEN = ceil(log2(n)), minimum 1, per
// spec.md §4.7.
func symCodeLenFor(n int) int {
	l := 0
	for (1 << uint(l)) < n {
		l++
	}
	if l == 0 {
		l = 1
	}
	return l
}

// DecodeSymbolDictionary implements spec.md §4.6/§4.7: the arithmetic
// and Huffman paths and the export run-length step. Refinement-aggregate
// single- and multi-instance symbols are decoded on the arithmetic path
// only; the Huffman path rejects SDREFAGG with ErrUnsupported.
func DecodeSymbolDictionary(data []byte, p SymbolDictParams) ([]*Bitmap, error) {
	if p.SDHUFF {
		return decodeSymbolDictHuffman(data, p)
	}
	return decodeSymbolDictArith(data, p)
}

func decodeSymbolDictArith(data []byte, p SymbolDictParams) ([]*Bitmap, error) {
	dec := arith.NewDecoder(data)
	genCX := make([]arith.Context, 1<<16)
	var refCX []arith.Context
	if p.SDREFAGG {
		refCX = make([]arith.Context, 1<<13)
	}

	var iadh, iadw, iaex, iaai ArithIntDecoder
	rc := &refinementContexts{refineCX: refCX}

	newSymbols := make([]*Bitmap, 0, p.NumNewSyms)
	totalSyms := len(p.InputSymbols) + p.NumNewSyms
	symCodeLen := symCodeLenFor(totalSyms)

	heightClassHeight := int32(0)
	for len(newSymbols) < p.NumNewSyms {
		dh, oob := iadh.Decode(dec)
		if oob {
			return nil, fmt.Errorf("%w: unexpected OOB decoding HCDH", ErrSymbol)
		}
		heightClassHeight += dh
		if heightClassHeight <= 0 {
			return nil, fmt.Errorf("%w: non-positive height class height", ErrSymbol)
		}
		symbolWidth := int32(0)

		for {
			dw, oob := iadw.Decode(dec)
			if oob {
				break // end of height class
			}
			symbolWidth += dw
			if symbolWidth <= 0 {
				return nil, fmt.Errorf("%w: non-positive symbol width", ErrSymbol)
			}
			if len(newSymbols) >= p.NumNewSyms {
				return nil, fmt.Errorf("%w: too many symbols in height class", ErrSymbol)
			}

			if p.SDREFAGG {
				nInst, oob := iaai.Decode(dec)
				if oob {
					return nil, fmt.Errorf("%w: unexpected OOB decoding REFAGGNINST", ErrSymbol)
				}
				var bm *Bitmap
				var err error
				if nInst == 1 {
					bm, err = decodeSingleRefinedSymbol(dec, rc, p, int(symbolWidth), int(heightClassHeight), p.InputSymbols, newSymbols, symCodeLen)
				} else {
					bm, err = decodeAggregateSymbol(dec, rc, p, int(symbolWidth), int(heightClassHeight), int(nInst), p.InputSymbols, newSymbols, symCodeLen)
				}
				if err != nil {
					return nil, err
				}
				newSymbols = append(newSymbols, bm)
				continue
			}

			bm, err := DecodeGenericRegion(dec, genCX, GenericRegionParams{
				Width: int(symbolWidth), Height: int(heightClassHeight),
				Template: p.SDTEMPLATE, AT: p.SDAT,
			})
			if err != nil {
				return nil, err
			}
			newSymbols = append(newSymbols, bm)
		}
	}

	return exportSymbols(dec, &iaex, p.InputSymbols, newSymbols, p.NumExSyms)
}

// decodeSingleRefinedSymbol implements spec.md §4.7: decode an ID,
// RDX, RDY via shared refinement contexts, and refine the referenced
// symbol.
func decodeSingleRefinedSymbol(dec *arith.Decoder, rc *refinementContexts, p SymbolDictParams, w, h int, input, newSyms []*Bitmap, symCodeLen int) (*Bitmap, error) {
	if rc.iaid == nil {
		rc.iaid = NewArithIAIDDecoder(symCodeLen)
	}
	if rc.refineCX == nil {
		rc.refineCX = make([]arith.Context, 1<<13)
	}
	id := rc.iaid.Decode(dec)
	rdx, _ := rc.iardx.Decode(dec)
	rdy, _ := rc.iardy.Decode(dec)

	ref, err := symbolAt(input, newSyms, int(id))
	if err != nil {
		return nil, err
	}
	return DecodeRefinementRegion(dec, rc.refineCX, RefinementParams{
		Width: w, Height: h, Template: p.SDRTEMPLATE, AT: p.SDRAT,
		Reference: ref, RefDX: int(rdx), RefDY: int(rdy),
	})
}

// decodeAggregateSymbol implements spec.md §4.6 step 3's multi-instance
// refinement-aggregate path by invoking the text region decoder with
// Table-17 parameters.
func decodeAggregateSymbol(dec *arith.Decoder, rc *refinementContexts, p SymbolDictParams, w, h, nInst int, input, newSyms []*Bitmap, symCodeLen int) (*Bitmap, error) {
	allSyms := make([]*Bitmap, 0, len(input)+len(newSyms))
	allSyms = append(allSyms, input...)
	allSyms = append(allSyms, newSyms...)

	trp := TextRegionParams{
		SBW: w, SBH: h, SBNumInstances: nInst, SBStrips: 1,
		SBCombOp: CombOR, RefCorner: CornerTopLeft,
		SBSyms: allSyms, SBSymCodeLen: symCodeLen,
		SBRefine: true, SBRTemplate: p.SDRTEMPLATE, SBRAT: p.SDRAT,
	}
	return decodeTextRegionArithShared(dec, trp, rc)
}

// symbolAt flattens the borrowed/owned index space per spec.md §9's
// design note: indices < len(input) address input, the rest address
// newSyms.
func symbolAt(input, newSyms []*Bitmap, id int) (*Bitmap, error) {
	if id < 0 {
		return nil, fmt.Errorf("%w: negative symbol id", ErrSymbol)
	}
	if id < len(input) {
		return input[id], nil
	}
	id -= len(input)
	if id >= len(newSyms) {
		return nil, fmt.Errorf("%w: symbol id out of range", ErrSymbol)
	}
	return newSyms[id], nil
}

// exportSymbols implements spec.md §4.6's export step: alternating
// run-lengths of excluded/included flags over the concatenated
// input+new symbol list.
func exportSymbols(dec *arith.Decoder, iaex *ArithIntDecoder, input, newSyms []*Bitmap, numExSyms int) ([]*Bitmap, error) {
	all := make([]*Bitmap, 0, len(input)+len(newSyms))
	all = append(all, input...)
	all = append(all, newSyms...)

	flags := make([]bool, len(all))
	curFlag := false
	idx := 0
	for idx < len(all) {
		runLen, oob := iaex.Decode(dec)
		if oob {
			return nil, fmt.Errorf("%w: unexpected OOB in export run", ErrSymbol)
		}
		if runLen < 0 {
			return nil, fmt.Errorf("%w: negative export run length", ErrSymbol)
		}
		for i := int32(0); i < runLen && idx < len(all); i++ {
			flags[idx] = curFlag
			idx++
		}
		curFlag = !curFlag
	}

	exported := make([]*Bitmap, 0, numExSyms)
	for i, f := range flags {
		if f {
			exported = append(exported, all[i])
		}
	}
	if len(exported) != numExSyms {
		return nil, fmt.Errorf("%w: exported %d symbols, expected %d", ErrSymbol, len(exported), numExSyms)
	}
	return exported, nil
}

// decodeSymbolDictHuffman implements spec.md §4.6's Huffman path: the
// height-class loop records widths, and the class's collective bitmap
// is decoded after DW terminates with OOB, then sliced by width.
func decodeSymbolDictHuffman(data []byte, p SymbolDictParams) ([]*Bitmap, error) {
	r := bitio.NewReader(data)
	newSymbols := make([]*Bitmap, 0, p.NumNewSyms)

	dhTable := p.HuffDH
	dwTable := p.HuffDW
	bmSizeTable := p.HuffBMSize
	if dhTable == nil {
		dhTable = StandardTableB4
	}
	if dwTable == nil {
		dwTable = StandardTableB2
	}
	if bmSizeTable == nil {
		bmSizeTable = StandardTableB1
	}

	heightClassHeight := int32(0)
	for len(newSymbols) < p.NumNewSyms {
		dh, oob, err := dhTable.Decode(r)
		if err != nil {
			return nil, err
		}
		if oob {
			return nil, fmt.Errorf("%w: unexpected OOB decoding HCDH", ErrSymbol)
		}
		heightClassHeight += dh
		if heightClassHeight <= 0 {
			return nil, fmt.Errorf("%w: non-positive height class height", ErrSymbol)
		}

		symbolWidth := int32(0)
		totalWidth := int32(0)
		var widths []int32
		for {
			dw, oob, err := dwTable.Decode(r)
			if err != nil {
				return nil, err
			}
			if oob {
				break
			}
			symbolWidth += dw
			if symbolWidth <= 0 {
				return nil, fmt.Errorf("%w: non-positive symbol width", ErrSymbol)
			}
			totalWidth += symbolWidth
			widths = append(widths, symbolWidth)
			if p.SDREFAGG {
				return nil, fmt.Errorf("%w: huffman refinement-aggregate symbol dictionaries", ErrUnsupported)
			}
		}

		bmSize, _, err := bmSizeTable.Decode(r)
		if err != nil {
			return nil, err
		}
		r.Align()
		var classBitmap *Bitmap
		if bmSize == 0 {
			classBitmap = NewBitmap(int(totalWidth), int(heightClassHeight))
			for y := 0; y < int(heightClassHeight); y++ {
				for x := 0; x < int(totalWidth); x++ {
					bit, err := r.ReadBit()
					if err != nil {
						return nil, fmt.Errorf("%w: uncompressed height-class bitmap: %v", ErrSymbol, err)
					}
					classBitmap.SetPixel(x, y, uint8(bit))
				}
			}
			r.Align()
		} else {
			raw, err := r.ReadBytes(int(bmSize))
			if err != nil {
				return nil, fmt.Errorf("%w: MMR height-class bitmap: %v", ErrSymbol, err)
			}
			classBitmap, err = DecodeMMR(raw, int(totalWidth), int(heightClassHeight))
			if err != nil {
				return nil, err
			}
		}

		x0 := 0
		for _, w := range widths {
			sym := classBitmap.SubBitmap(x0, 0, int(w), int(heightClassHeight))
			newSymbols = append(newSymbols, sym)
			x0 += int(w)
		}
	}

	// Export step under Huffman uses standard table B.1 for the run
	// lengths (no Huffman-specific export table is defined distinctly;
	// spec.md §4.6 describes the same IAEX-equivalent run-length shape).
	all := make([]*Bitmap, 0, len(p.InputSymbols)+len(newSymbols))
	all = append(all, p.InputSymbols...)
	all = append(all, newSymbols...)
	flags := make([]bool, len(all))
	curFlag := false
	idx := 0
	for idx < len(all) {
		runLen, _, err := StandardTableB1.Decode(r)
		if err != nil {
			return nil, err
		}
		if runLen < 0 {
			return nil, fmt.Errorf("%w: negative export run length", ErrSymbol)
		}
		for i := int32(0); i < runLen && idx < len(all); i++ {
			flags[idx] = curFlag
			idx++
		}
		curFlag = !curFlag
	}
	exported := make([]*Bitmap, 0, p.NumExSyms)
	for i, f := range flags {
		if f {
			exported = append(exported, all[i])
		}
	}
	if len(exported) != p.NumExSyms {
		return nil, fmt.Errorf("%w: exported %d symbols, expected %d", ErrSymbol, len(exported), p.NumExSyms)
	}
	return exported, nil
}
