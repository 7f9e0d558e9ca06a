// Package mct implements the JPEG2000 inverse multi-component
// transforms of spec.md §4.13: the reversible (integer) and
// irreversible (floating-point) color transforms, plus the DC level
// shift that converts unsigned sample values to/from the signed domain
// the wavelet and entropy stages operate in.
package mct

// InverseReversible applies the reversible multi-component transform
// (RCT) in place to three same-length integer component grids carrying
// Y, Cb, Cr in that slice order, replacing them with R, G, B:
//
//	G = Y - floor((Cr+Cb)/4); R = Cr + G; B = Cb + G.
func InverseReversible(y, cb, cr []int32) {
	for i := range y {
		g := y[i] - ((cr[i] + cb[i]) >> 2)
		r := cr[i] + g
		b := cb[i] + g
		y[i] = r
		cb[i] = g
		cr[i] = b
	}
}

// InverseIrreversible applies the irreversible color transform (ICT) in
// place to three same-length float component grids carrying Y, Cb, Cr,
// replacing them with R, G, B:
//
//	R = Y + 1.402*Cr; G = Y - 0.34413*Cb - 0.71414*Cr; B = Y + 1.772*Cb.
func InverseIrreversible(y, cb, cr []float32) {
	for i := range y {
		r := y[i] + 1.402*cr[i]
		g := y[i] - 0.34413*cb[i] - 0.71414*cr[i]
		b := y[i] + 1.772*cb[i]
		y[i] = r
		cb[i] = g
		cr[i] = b
	}
}

// Applicable reports whether spec.md §4.13's MCT preconditions hold:
// the stream's MCT flag is set, there are at least 3 components, and
// the first three share a sample count (the wavelet-kind match is the
// caller's responsibility, since that lives in the per-component
// coding style rather than raw sample data).
func Applicable(mctFlag bool, componentLengths []int) bool {
	if !mctFlag || len(componentLengths) < 3 {
		return false
	}
	n := componentLengths[0]
	return componentLengths[1] == n && componentLengths[2] == n
}

// LevelShift adds 2^(precision-1) to every sample, converting a signed
// reconstructed value back to its unsigned representation.
func LevelShift(data []float32, precision int) {
	shift := float32(int64(1) << uint(precision-1))
	for i := range data {
		data[i] += shift
	}
}
