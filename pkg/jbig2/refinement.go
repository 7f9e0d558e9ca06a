package jbig2

import (
	"fmt"

	"github.com/novvoo/go-pdfcore/internal/arith"
)

// RefinementParams carries the per-invocation parameters of spec.md
// §4.5: the reference bitmap and its offset, template choice, AT pixel
// overrides (only template 0 uses them), and the typical-prediction
// flag (TPGRON).
type RefinementParams struct {
	Width, Height int
	Template      int // 0 or 1
	AT            [2]ATPixel
	Reference     *Bitmap
	RefDX, RefDY  int
	TPGRON        bool
}

// DecodeRefinementRegion implements spec.md §4.5: for each pixel, form a
// context from neighbors of the partial bitmap under construction and
// aligned pixels of the reference bitmap, decode one bit, with an
// optional typical-prediction shortcut that copies from the reference
// without decoding. Reachable only from symbol dictionaries and text
// regions, never as a standalone segment (spec.md §1 Non-goals).
func DecodeRefinementRegion(dec *arith.Decoder, cx []arith.Context, p RefinementParams) (*Bitmap, error) {
	if p.Width <= 0 || p.Height <= 0 {
		return nil, fmt.Errorf("%w: invalid refinement region dimensions %dx%d", ErrRegion, p.Width, p.Height)
	}
	bm := NewBitmap(p.Width, p.Height)
	ref := func(x, y int) uint8 {
		return p.Reference.GetPixel(x-p.RefDX, y-p.RefDY)
	}

	const tpgrContext = 0x0008

	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			if p.TPGRON {
				typical := true
				rv := ref(x, y)
				for dy := -1; dy <= 1 && typical; dy++ {
					for dx := -1; dx <= 1; dx++ {
						if ref(x+dx, y+dy) != rv {
							typical = false
							break
						}
					}
				}
				if typical {
					bit := dec.DecodeBit(&cx[tpgrContext])
					if bit == 1 {
						bm.SetPixel(x, y, rv)
						continue
					}
				}
			}

			var ctxVal int
			if p.Template == 0 {
				ctxVal = int(bm.GetPixel(x-1, y))<<0 |
					int(bm.GetPixel(x+1, y-1))<<1 |
					int(bm.GetPixel(x, y-1))<<2 |
					int(bm.GetPixel(x+int(p.AT[0].X), y+int(p.AT[0].Y)))<<3 |
					int(ref(x+1, y+1))<<4 |
					int(ref(x, y+1))<<5 |
					int(ref(x-1, y+1))<<6 |
					int(ref(x+1, y))<<7 |
					int(ref(x, y))<<8 |
					int(ref(x-1, y))<<9 |
					int(ref(x+1, y-1))<<10 |
					int(ref(x, y-1))<<11 |
					int(ref(x+int(p.AT[1].X), y+int(p.AT[1].Y)))<<12
			} else {
				ctxVal = int(bm.GetPixel(x-1, y))<<0 |
					int(bm.GetPixel(x+1, y-1))<<1 |
					int(bm.GetPixel(x, y-1))<<2 |
					int(bm.GetPixel(x-1, y-1))<<3 |
					int(ref(x+1, y+1))<<4 |
					int(ref(x, y+1))<<5 |
					int(ref(x+1, y))<<6 |
					int(ref(x, y))<<7 |
					int(ref(x-1, y))<<8 |
					int(ref(x, y-1))<<9
			}
			bit := dec.DecodeBit(&cx[ctxVal])
			bm.SetPixel(x, y, uint8(bit))
		}
	}
	return bm, nil
}
