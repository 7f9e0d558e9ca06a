package jpeg2000

import "github.com/novvoo/go-pdfcore/pkg/jpeg2000/internal/codestream"

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// tileComponentDims returns component c's sample grid dimensions within
// one tile, accounting for its SIZ subsampling factors.
func tileComponentDims(h *codestream.Header, tileW, tileH int, c int) (int, int) {
	comp := h.Components[c]
	return ceilDiv(tileW, int(comp.SubsamplingX)), ceilDiv(tileH, int(comp.SubsamplingY))
}

// resolutionDims returns the width/height of resolution level r's LL
// grid (r=0 coarsest, r=numDecomp finest = the component's full tile
// size), per spec.md §4.13's synthesis relation.
func resolutionDims(compW, compH, numDecomp, r int) (int, int) {
	shift := numDecomp - r
	if shift < 0 {
		shift = 0
	}
	return ceilDiv(compW, 1<<uint(shift)), ceilDiv(compH, 1<<uint(shift))
}

// subbandDims returns the pixel dimensions of one sub-band at resolution
// level r (r=0 has only LL; r>0 has HL/LH/HH sized against the r-1 LL).
func subbandDims(compW, compH, numDecomp, r int, kind codestream.SubbandKind) (int, int) {
	w1, h1 := resolutionDims(compW, compH, numDecomp, r)
	if r == 0 || kind == codestream.SubbandLL {
		return w1, h1
	}
	w0, h0 := resolutionDims(compW, compH, numDecomp, r-1)
	switch kind {
	case codestream.SubbandHL:
		return w1 - w0, h0
	case codestream.SubbandLH:
		return w0, h1 - h0
	case codestream.SubbandHH:
		return w1 - w0, h1 - h0
	}
	return 0, 0
}

// codeBlockGrid returns the number of code-blocks tiling a width x
// height sub-band with nominal code-block size cbW x cbH.
func codeBlockGrid(w, h, cbW, cbH int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	return ceilDiv(w, cbW), ceilDiv(h, cbH)
}

// codeBlockBounds returns code-block (bx,by)'s pixel rectangle within a
// w x h sub-band, clipped at the sub-band's edge.
func codeBlockBounds(w, h, cbW, cbH, bx, by int) (x0, y0, x1, y1 int) {
	x0, y0 = bx*cbW, by*cbH
	x1, y1 = x0+cbW, y0+cbH
	if x1 > w {
		x1 = w
	}
	if y1 > h {
		y1 = h
	}
	return
}
