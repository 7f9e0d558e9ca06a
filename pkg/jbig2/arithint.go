package jbig2

import "github.com/novvoo/go-pdfcore/internal/arith"

// ArithIntDecoder implements the JBIG2 integer arithmetic decoding
// procedure of spec.md §4.2 (Annex A.2): a 512-slot context vector shared
// across all calls for one named procedure (IADH, IADW, IAEX, ...).
type ArithIntDecoder struct {
	cx [512]arith.Context
}

// Decode decodes one signed integer (or OOB) per Annex A.2: a sign bit,
// then a unary prefix selecting a bit-count class from
// {2,4,6,8,12,32}, then that many value bits forming an unsigned
// magnitude, with the sign applied afterward. A zero-magnitude decode
// with sign bit 1 signals OOB. prev is the running context-formation
// value of spec.md §4.2 ("clipped to 9 bits with a wrap-in-the-high-bit
// rule").
func (d *ArithIntDecoder) Decode(dec *arith.Decoder) (value int32, oob bool) {
	prev := uint32(1)
	readBits := func(n int) uint32 {
		var v uint32
		for i := 0; i < n; i++ {
			bit := dec.DecodeBit(&d.cx[prev])
			if prev < 256 {
				prev = (prev << 1) | uint32(bit)
			} else {
				prev = (((prev << 1) | uint32(bit)) & 511) | 256
			}
			v = (v << 1) | uint32(bit)
		}
		return v
	}

	sign := readBits(1)

	var mag uint32
	switch {
	case readBits(1) == 0:
		mag = readBits(2)
	case readBits(1) == 0:
		mag = readBits(4) + 4
	case readBits(1) == 0:
		mag = readBits(6) + 20
	case readBits(1) == 0:
		mag = readBits(8) + 84
	case readBits(1) == 0:
		mag = readBits(12) + 340
	default:
		mag = readBits(32) + 4436
	}

	if sign == 0 {
		return int32(mag), false
	}
	if mag == 0 {
		return 0, true
	}
	return -int32(mag), false
}

// ArithIAIDDecoder implements the distinct fixed-length symbol-ID
// procedure of spec.md §4.2 / Annex A.3: contexts indexed by the
// preceding SBSYMCODELEN+1 decoded bits, returning the low SBSYMCODELEN
// bits as the symbol index.
type ArithIAIDDecoder struct {
	symCodeLen int
	cx         []arith.Context
}

// NewArithIAIDDecoder allocates the 2^(symCodeLen+1)-entry context vector
// for a decoder with the given fixed code length.
func NewArithIAIDDecoder(symCodeLen int) *ArithIAIDDecoder {
	if symCodeLen < 0 {
		symCodeLen = 0
	}
	return &ArithIAIDDecoder{
		symCodeLen: symCodeLen,
		cx:         make([]arith.Context, 1<<uint(symCodeLen+1)),
	}
}

// Decode reads SBSYMCODELEN bits, one context step at a time, and
// returns the resulting unsigned symbol index.
func (d *ArithIAIDDecoder) Decode(dec *arith.Decoder) uint32 {
	prev := uint32(1)
	for i := 0; i < d.symCodeLen; i++ {
		bit := dec.DecodeBit(&d.cx[prev])
		prev = (prev << 1) | uint32(bit)
	}
	return prev - (1 << uint(d.symCodeLen))
}
