package jbig2

import (
	"fmt"

	"github.com/novvoo/go-pdfcore/internal/arith"
)

// PatternDictParams carries the segment flags of spec.md §4.9's pattern
// dictionary paragraph.
type PatternDictParams struct {
	MMR           bool
	Template      int
	PatternWidth  int
	PatternHeight int
	MaxPatternIdx int
	AT            [4]ATPixel
}

// DecodePatternDictionary implements spec.md §4.9: one generic region of
// width (MaxPatternIdx+1)*PatternWidth and height PatternHeight is
// decoded, then sliced horizontally into MaxPatternIdx+1 patterns.
func DecodePatternDictionary(data []byte, p PatternDictParams) ([]*Bitmap, error) {
	if p.PatternWidth <= 0 || p.PatternHeight <= 0 || p.MaxPatternIdx < 0 {
		return nil, fmt.Errorf("%w: invalid pattern dictionary parameters", ErrRegion)
	}
	collectiveWidth := (p.MaxPatternIdx + 1) * p.PatternWidth

	var collective *Bitmap
	var err error
	if p.MMR {
		collective, err = DecodeMMR(data, collectiveWidth, p.PatternHeight)
	} else {
		dec := arith.NewDecoder(data)
		cx := make([]arith.Context, 1<<16)
		at := [4]ATPixel{
			{X: int8(-p.PatternWidth), Y: 0}, {-3, -1}, {2, -2}, {-2, -2},
		}
		_ = p.AT // AT pixels for pattern dictionaries are fixed per the standard, not segment-supplied.
		collective, err = DecodeGenericRegion(dec, cx, GenericRegionParams{
			Width: collectiveWidth, Height: p.PatternHeight, Template: p.Template, AT: at,
		})
	}
	if err != nil {
		return nil, err
	}

	patterns := make([]*Bitmap, p.MaxPatternIdx+1)
	for i := range patterns {
		patterns[i] = collective.SubBitmap(i*p.PatternWidth, 0, p.PatternWidth, p.PatternHeight)
	}
	return patterns, nil
}
