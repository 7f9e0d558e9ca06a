package jbig2

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/image/ccitt"
)

// DecodeMMR decodes width x height bits of Group 4 (MMR, "Modified
// Modified READ") 2-D run-length data from data, per spec.md §4.4's MMR
// fallback paragraph and §4.9's halftone per-plane MMR option.
//
// This backs onto golang.org/x/image/ccitt's real Group 3/4 fax decoder
// rather than a hand-rolled second implementation; the teacher's own
// pkg/pdf/ccitt.go carries a complete from-scratch CCITT T.4/T.6
// decoder (full white/black Huffman run-length tables, 2-D mode
// dispatch), which informed understanding of the bitstream but is not
// the runtime path here — see DESIGN.md.
func DecodeMMR(data []byte, width, height int) (*Bitmap, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid MMR region dimensions %dx%d", ErrRegion, width, height)
	}
	rc := ccitt.NewReader(bytes.NewReader(data), ccitt.MSB, ccitt.Group4, width, height, nil)
	defer rc.Close()

	stride := (width + 7) / 8
	packed := make([]byte, stride*height)
	if _, err := io.ReadFull(rc, packed); err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("%w: MMR decode: %v", ErrRegion, err)
	}

	bm := NewBitmap(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			byteVal := packed[y*stride+x/8]
			bit := (byteVal >> uint(7-x%8)) & 1
			// x/image/ccitt follows the convention that a 0 bit is a
			// black pixel (ink); JBIG2's generic-region bitmap uses 1
			// for a foreground ("black") pixel, so invert here.
			if bit == 0 {
				bm.SetPixel(x, y, 1)
			}
		}
	}
	return bm, nil
}
