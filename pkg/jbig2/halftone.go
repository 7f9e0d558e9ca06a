package jbig2

import (
	"fmt"

	"github.com/novvoo/go-pdfcore/internal/arith"
)

// HalftoneParams carries the segment flags of spec.md §4.9's halftone
// region paragraph.
type HalftoneParams struct {
	MMR             bool
	Template        int
	EnableSkip      bool
	CombOp          CombOp
	DefPixel        uint8
	GridWidth       int
	GridHeight      int
	GridOffsetX     int32
	GridOffsetY     int32
	GridVectorX     int32
	GridVectorY     int32
	RegionWidth     int
	RegionHeight    int
	Patterns        []*Bitmap
}

// bitsPerIndex returns ceil(log2(len(patterns))), minimum 1, per spec.md §4.9.
func bitsPerIndex(n int) int {
	bits := 0
	for (1 << uint(bits)) < n {
		bits++
	}
	if bits == 0 {
		bits = 1
	}
	return bits
}

// DecodeHalftoneRegion implements spec.md §4.9: grid_width x grid_height
// pattern indices are decoded as bits_per_index bit-planes (each a
// generic region), then each grid cell's pattern is drawn at its linear
// placement position.
func DecodeHalftoneRegion(data []byte, p HalftoneParams) (*Bitmap, error) {
	if len(p.Patterns) == 0 {
		return nil, fmt.Errorf("%w: halftone region with no patterns", ErrRegion)
	}
	region := NewBitmap(p.RegionWidth, p.RegionHeight)
	region.Fill(p.DefPixel)

	bpp := bitsPerIndex(len(p.Patterns))
	gray := make([][]int, p.GridHeight)
	for i := range gray {
		gray[i] = make([]int, p.GridWidth)
	}

	var skip *Bitmap
	if p.EnableSkip {
		skip = computeHalftoneSkip(p)
	}

	if p.MMR {
		// Each bit-plane is MMR-coded back to back within data; the
		// exact byte split is carried by the segment's own length
		// bookkeeping in the caller, so here the planes are decoded
		// from one continuous MMR stream per plane via independent
		// calls, most-significant plane first.
		offset := 0
		for plane := bpp - 1; plane >= 0; plane-- {
			planeBM, err := DecodeMMR(data[offset:], p.GridWidth, p.GridHeight)
			if err != nil {
				return nil, err
			}
			applyHalftonePlane(gray, planeBM, plane, skip)
			offset += (p.GridWidth+7)/8*p.GridHeight
		}
	} else {
		dec := arith.NewDecoder(data)
		cx := make([]arith.Context, 1<<16)
		at := [4]ATPixel{{3, -1}, {-3, -1}, {2, -2}, {-2, -2}}
		if p.Template >= 2 {
			at[0] = ATPixel{2, -1}
		}
		for plane := bpp - 1; plane >= 0; plane-- {
			planeBM, err := DecodeGenericRegion(dec, cx, GenericRegionParams{
				Width: p.GridWidth, Height: p.GridHeight, Template: p.Template, AT: at,
			})
			if err != nil {
				return nil, err
			}
			applyHalftonePlane(gray, planeBM, plane, skip)
		}
	}

	patH := p.Patterns[0].Height
	for m := 0; m < p.GridHeight; m++ {
		for n := 0; n < p.GridWidth; n++ {
			idx := gray[m][n]
			if idx >= len(p.Patterns) {
				idx = len(p.Patterns) - 1
			}
			x := int(p.GridOffsetX+int32(m)*p.GridVectorY+int32(n)*p.GridVectorX) >> 8
			y := int(p.GridOffsetY+int32(m)*p.GridVectorX-int32(n)*p.GridVectorY) >> 8
			_ = patH
			region.Compose(p.Patterns[idx], x, y, p.CombOp)
		}
	}
	return region, nil
}

// applyHalftonePlane merges one decoded bit-plane into the running gray
// index per cell: bit-plane (bpp-1) down to 0, XORed with the
// previously-accumulated bit per §6.6.5's Gray-code composition rule.
func applyHalftonePlane(gray [][]int, plane *Bitmap, bitIndex int, skip *Bitmap) {
	for y := 0; y < plane.Height; y++ {
		for x := 0; x < plane.Width; x++ {
			if skip != nil && skip.GetPixel(x, y) != 0 {
				continue
			}
			bit := int(plane.GetPixel(x, y))
			prevBit := 0
			if bitIndex+1 < 32 {
				prevBit = (gray[y][x] >> uint(bitIndex+1)) & 1
			}
			bit ^= prevBit
			gray[y][x] |= bit << uint(bitIndex)
		}
	}
}

// computeHalftoneSkip derives the optional skip-bitmap that omits grid
// cells whose pattern would fall entirely outside the region, per
// spec.md §4.9's "optional skip-mask" note.
func computeHalftoneSkip(p HalftoneParams) *Bitmap {
	skip := NewBitmap(p.GridWidth, p.GridHeight)
	if len(p.Patterns) == 0 {
		return skip
	}
	patW, patH := p.Patterns[0].Width, p.Patterns[0].Height
	for m := 0; m < p.GridHeight; m++ {
		for n := 0; n < p.GridWidth; n++ {
			x := int(p.GridOffsetX+int32(m)*p.GridVectorY+int32(n)*p.GridVectorX) >> 8
			y := int(p.GridOffsetY+int32(m)*p.GridVectorX-int32(n)*p.GridVectorY) >> 8
			if x+patW <= 0 || x >= p.RegionWidth || y+patH <= 0 || y >= p.RegionHeight {
				skip.SetPixel(n, m, 1)
			}
		}
	}
	return skip
}
