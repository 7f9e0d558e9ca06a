package entropy

import (
	"math"

	"github.com/novvoo/go-pdfcore/internal/arith"
)

// Band identifies which sub-band a code-block's coefficients belong to;
// zero-coding context selection depends on it per Annex D.3.1.
type Band = band

const (
	BandLL = bandLL
	BandHL = bandHL
	BandLH = bandLH
	BandHH = bandHH
)

// coefFlags tracks per-coefficient decode state. The array carries a
// one-cell border on every side so neighbor lookups never need bounds
// checks, mirroring the code-block flag plane of jpfielding-dicos.go's
// CodeBlock (X0,Y0,X1,Y1,Data,Passes,NumZBP,Length,CodedData).
type coefFlags uint8

const (
	flagSig coefFlags = 1 << iota
	flagVisit
	flagRefine
	flagSignNeg
)

// CodeBlockState holds one code-block's decode input and output,
// grounded on jpfielding-dicos.go's CodeBlock struct.
type CodeBlockState struct {
	X0, Y0, X1, Y1 int
	Data           []int32 // decoded signed coefficients, row-major, (X1-X0)x(Y1-Y0)
	Passes         int
	NumZBP         int // zero bit-planes below the magnitude bound
	Length         int
	CodedData      []byte
}

// Width and Height return the code-block's coefficient-grid dimensions.
func (cb *CodeBlockState) Width() int  { return cb.X1 - cb.X0 }
func (cb *CodeBlockState) Height() int { return cb.Y1 - cb.Y0 }

// Decode runs the cleanup/significance-propagation/magnitude-refinement
// three-pass bit-plane decoder of spec.md §4.12 over cb.CodedData,
// populating cb.Data with the decoded signed coefficients. numBitPlanes
// is the number of magnitude bit-planes to decode (the code-block's
// maximum bit-depth minus its zero bit-plane count).
func Decode(cb *CodeBlockState, numBitPlanes int, sb Band) error {
	w, h := cb.Width(), cb.Height()
	if w <= 0 || h <= 0 {
		return ErrInvalid
	}
	data := make([]int32, w*h)
	stride := w + 2
	flags := make([]coefFlags, stride*(h+2))

	if numBitPlanes <= 0 {
		cb.Data = data
		return nil
	}

	dec := arith.NewDecoder(cb.CodedData)
	var contexts [numContexts]arith.Context
	contexts[ctxZC0].Index = 4
	contexts[ctxRL].Index = 3
	contexts[ctxUniform].Index = 46

	d := &blockDecoder{dec: dec, ctx: &contexts, data: data, flags: flags, w: w, h: h, stride: stride, sb: sb}

	for bp := numBitPlanes - 1; bp >= 0; bp-- {
		bit := int32(1) << uint(bp)
		d.significancePass(bit)
		d.magnitudeRefinementPass(bit)
		d.cleanupPass(bit)
	}

	result := make([]int32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := data[y*w+x]
			if flags[d.flagIdx(x, y)]&flagSignNeg != 0 {
				v = -v
			}
			result[y*w+x] = v
		}
	}
	cb.Data = result
	return nil
}

type blockDecoder struct {
	dec    *arith.Decoder
	ctx    *[numContexts]arith.Context
	data   []int32
	flags  []coefFlags
	w, h   int
	stride int
	sb     Band
}

func (d *blockDecoder) flagIdx(x, y int) int { return (y+1)*d.stride + x + 1 }

func (d *blockDecoder) has(x, y int, f coefFlags) bool {
	return d.flags[d.flagIdx(x, y)]&f != 0
}

func (d *blockDecoder) set(x, y int, f coefFlags) {
	d.flags[d.flagIdx(x, y)] |= f
}

func (d *blockDecoder) clear(x, y int, f coefFlags) {
	d.flags[d.flagIdx(x, y)] &^= f
}

// neighborPacked packs the eight-neighbor significance bits around (x,
// y) in the W,E,N,S,NW,NE,SW,SE bit order zcLUT expects.
func (d *blockDecoder) neighborPacked(x, y int) uint8 {
	idx := d.flagIdx(x, y)
	s := d.stride
	f := d.flags
	var packed uint8
	if f[idx-1]&flagSig != 0 {
		packed |= 0x01
	}
	if f[idx+1]&flagSig != 0 {
		packed |= 0x02
	}
	if f[idx-s]&flagSig != 0 {
		packed |= 0x04
	}
	if f[idx+s]&flagSig != 0 {
		packed |= 0x08
	}
	if f[idx-s-1]&flagSig != 0 {
		packed |= 0x10
	}
	if f[idx-s+1]&flagSig != 0 {
		packed |= 0x20
	}
	if f[idx+s-1]&flagSig != 0 {
		packed |= 0x40
	}
	if f[idx+s+1]&flagSig != 0 {
		packed |= 0x80
	}
	return packed
}

func (d *blockDecoder) hasSignificantNeighbor(x, y int) bool {
	return d.neighborPacked(x, y) != 0
}

func (d *blockDecoder) zcContext(x, y int) int {
	return zeroCodingContext(d.sb, d.neighborPacked(x, y))
}

func (d *blockDecoder) scContext(x, y int) (ctx, pred int) {
	idx := d.flagIdx(x, y)
	s := d.stride
	f := d.flags

	hc := 0
	if f[idx-1]&flagSig != 0 {
		if f[idx-1]&flagSignNeg != 0 {
			hc--
		} else {
			hc++
		}
	}
	if f[idx+1]&flagSig != 0 {
		if f[idx+1]&flagSignNeg != 0 {
			hc--
		} else {
			hc++
		}
	}
	vc := 0
	if f[idx-s]&flagSig != 0 {
		if f[idx-s]&flagSignNeg != 0 {
			vc--
		} else {
			vc++
		}
	}
	if f[idx+s]&flagSig != 0 {
		if f[idx+s]&flagSignNeg != 0 {
			vc--
		} else {
			vc++
		}
	}
	return signCodingContext(hc, vc)
}

func (d *blockDecoder) mrContext(x, y int) int {
	if !d.has(x, y, flagRefine) {
		if d.hasSignificantNeighbor(x, y) {
			return ctxMag1
		}
		return ctxMag0
	}
	return ctxMag2
}

func (d *blockDecoder) decodeSign(x, y int) {
	ctx, pred := d.scContext(x, y)
	sign := d.dec.DecodeBit(&d.ctx[ctx]) ^ pred
	if sign != 0 {
		d.set(x, y, flagSignNeg)
	}
}

func (d *blockDecoder) markNewlySignificant(x, y int, bit int32) {
	d.data[y*d.w+x] = bit
	d.decodeSign(x, y)
	d.set(x, y, flagSig)
}

// significancePass is the significance-propagation pass: a coefficient
// not yet significant, with at least one significant neighbor, has its
// significance bit decoded under the zero-coding context.
func (d *blockDecoder) significancePass(bit int32) {
	for y := 0; y < d.h; y++ {
		for x := 0; x < d.w; x++ {
			if d.has(x, y, flagSig) {
				continue
			}
			if !d.hasSignificantNeighbor(x, y) {
				continue
			}
			ctx := d.zcContext(x, y)
			if d.dec.DecodeBit(&d.ctx[ctx]) != 0 {
				d.markNewlySignificant(x, y, bit)
			}
			d.set(x, y, flagVisit)
		}
	}
}

// magnitudeRefinementPass refines coefficients already significant from
// a previous bit-plane (skipping ones the significance pass just
// touched this round, flagged by flagVisit).
func (d *blockDecoder) magnitudeRefinementPass(bit int32) {
	for y := 0; y < d.h; y++ {
		for x := 0; x < d.w; x++ {
			if !d.has(x, y, flagSig) || d.has(x, y, flagVisit) {
				continue
			}
			ctx := d.mrContext(x, y)
			if d.dec.DecodeBit(&d.ctx[ctx]) != 0 {
				d.data[y*d.w+x] |= bit
			}
			d.set(x, y, flagRefine)
		}
	}
}

// cleanupPass decodes every coefficient the first two passes skipped
// this round (no significant neighbor, so never visited), using
// run-length coding across 4-row stripes when all four rows are still
// zero-context.
func (d *blockDecoder) cleanupPass(bit int32) {
	for y0 := 0; y0 < d.h; y0 += 4 {
		for x := 0; x < d.w; x++ {
			if d.canRunLength(x, y0) {
				d.decodeRunLength(x, y0, bit)
				continue
			}
			for y := y0; y < y0+4 && y < d.h; y++ {
				if d.has(x, y, flagVisit) {
					d.clear(x, y, flagVisit)
					continue
				}
				if d.has(x, y, flagSig) {
					continue
				}
				ctx := d.zcContext(x, y)
				if d.dec.DecodeBit(&d.ctx[ctx]) != 0 {
					d.markNewlySignificant(x, y, bit)
				}
			}
		}
	}
}

func (d *blockDecoder) canRunLength(x, y0 int) bool {
	if y0+4 > d.h {
		return false
	}
	for y := y0; y < y0+4; y++ {
		if d.has(x, y, flagSig|flagVisit) {
			return false
		}
		if d.hasSignificantNeighbor(x, y) {
			return false
		}
	}
	return true
}

func (d *blockDecoder) decodeRunLength(x, y0 int, bit int32) {
	if d.dec.DecodeBit(&d.ctx[ctxRL]) == 0 {
		return
	}
	pos := d.dec.DecodeBit(&d.ctx[ctxUniform]) << 1
	pos |= d.dec.DecodeBit(&d.ctx[ctxUniform])

	d.markNewlySignificant(x, y0+pos, bit)

	for y := y0 + pos + 1; y < y0+4 && y < d.h; y++ {
		ctx := d.zcContext(x, y)
		if d.dec.DecodeBit(&d.ctx[ctx]) != 0 {
			d.markNewlySignificant(x, y, bit)
		}
	}
}

// StepSize computes Δ_b = 2^(R_b-ε_b) * (1 + μ_b/2^11), the quantization
// step size for a sub-band, per spec.md §4.12.
func StepSize(rb int, epsilon uint8, mu uint16) float64 {
	mant := 1.0 + float64(mu)/2048.0
	return math.Ldexp(mant, rb-int(epsilon))
}

// Dequantize multiplies decoded signed magnitudes by a sub-band's step
// size, producing floating-point coefficients ready for the inverse
// wavelet transform.
func Dequantize(coeffs []int32, delta float64) []float32 {
	out := make([]float32, len(coeffs))
	for i, v := range coeffs {
		out[i] = float32(float64(v) * delta)
	}
	return out
}
