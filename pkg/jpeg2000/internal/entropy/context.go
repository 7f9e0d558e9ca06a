// Package entropy implements the JPEG2000 bit-plane (Tier-1/EBCOT) decoder
// of spec.md §4.12: a 19-context three-pass arithmetic decoder run over
// internal/arith, with zero/sign/magnitude-refinement context derivation
// and run-length cleanup coding.
package entropy

// Context indices, per spec.md §4.12. Zero coding uses 9 contexts keyed
// by significant-neighbor geometry (Annex D.3.1, Table D.1); sign coding
// uses 5; magnitude refinement uses 3; the remaining two drive cleanup
// run-length coding.
const (
	ctxZC0 = iota
	ctxZC1
	ctxZC2
	ctxZC3
	ctxZC4
	ctxZC5
	ctxZC6
	ctxZC7
	ctxZC8

	ctxSC0
	ctxSC1
	ctxSC2
	ctxSC3
	ctxSC4

	ctxMag0
	ctxMag1
	ctxMag2

	ctxRL
	ctxUniform

	numContexts
)

// band identifies which of the four sub-band types a code-block belongs
// to, since zero-coding context selection depends on it.
type band int

const (
	bandLL band = iota
	bandHL
	bandLH
	bandHH
)

// zcLUT is the zero-coding context lookup table, indexed by
// band*256+packed where packed bundles the eight neighbor significance
// bits (bit0=W, bit1=E, bit2=N, bit3=S, bit4=NW, bit5=NE, bit6=SW,
// bit7=SE), per Annex D.3.1 Table D.1.
var zcLUT [4 * 256]uint8

func init() {
	for b := 0; b < 4; b++ {
		for packed := 0; packed < 256; packed++ {
			w := (packed >> 0) & 1
			e := (packed >> 1) & 1
			n := (packed >> 2) & 1
			s := (packed >> 3) & 1
			nw := (packed >> 4) & 1
			ne := (packed >> 5) & 1
			sw := (packed >> 6) & 1
			se := (packed >> 7) & 1

			h := w + e
			v := n + s
			d := nw + ne + sw + se

			var ctx int
			switch band(b) {
			case bandHL:
				h, v = v, h
				fallthrough
			case bandLL, bandLH:
				switch {
				case h == 2:
					ctx = 8
				case h == 1:
					switch {
					case v >= 1:
						ctx = 7
					case d >= 1:
						ctx = 6
					default:
						ctx = 5
					}
				case v == 2:
					ctx = 4
				case v == 1:
					if d >= 1 {
						ctx = 3
					} else {
						ctx = 2
					}
				case d >= 2:
					ctx = 1
				default:
					ctx = 0
				}
			case bandHH:
				hv := h + v
				switch {
				case hv >= 3:
					ctx = 8
				case hv == 2:
					switch {
					case d >= 2:
						ctx = 7
					case d >= 1:
						ctx = 6
					default:
						ctx = 5
					}
				case hv == 1:
					if d >= 2 {
						ctx = 4
					} else {
						ctx = 3
					}
				default:
					switch {
					case d >= 2:
						ctx = 2
					case d >= 1:
						ctx = 1
					default:
						ctx = 0
					}
				}
			}
			zcLUT[b*256+packed] = uint8(ctx)
		}
	}
}

func zeroCodingContext(b band, packed uint8) int {
	return int(zcLUT[int(b)*256+int(packed)])
}

// signCodingContext derives the sign-coding context and XOR prediction
// bit from horizontal/vertical signed-neighbor sums clipped to [-1, 1],
// per spec.md §4.12's nine-case table (Annex D.3.2): the dominant axis
// (horizontal if non-zero, else vertical) sets the XOR prediction bit
// from its sign, and the (h, v) pair, negated when that bit is 1, selects
// one of five contexts.
func signCodingContext(hc, vc int) (ctx, pred int) {
	hc = max(-1, min(1, hc))
	vc = max(-1, min(1, vc))
	pred = 0
	if hc < 0 || (hc == 0 && vc < 0) {
		pred = 1
		hc, vc = -hc, -vc
	}

	switch {
	case hc == 0 && vc == 0:
		ctx = ctxSC0
	case hc == 0:
		ctx = ctxSC1
	case vc == -1:
		ctx = ctxSC2
	case vc == 0:
		ctx = ctxSC3
	default:
		ctx = ctxSC4
	}
	return
}
