package jbig2

import "errors"

// Error kinds, per spec.md §7. Each sentinel names a kind, not a call
// site; callers distinguish the failing operation from the wrapped
// message, not from a distinct sentinel per function.
var (
	ErrParse        = errors.New("jbig2: parse error")
	ErrHuffman      = errors.New("jbig2: huffman error")
	ErrSymbol       = errors.New("jbig2: symbol error")
	ErrRegion       = errors.New("jbig2: region error")
	ErrOverflow     = errors.New("jbig2: arithmetic overflow")
	ErrUnsupported  = errors.New("jbig2: unsupported feature")
)
