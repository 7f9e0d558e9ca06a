// Package dwt implements the inverse-only JPEG2000 discrete wavelet
// transform of spec.md §4.13: 5/3 reversible (integer, lossless) and
// 9/7 irreversible (floating-point, lossy) lifting kernels, applied
// column-then-row per resolution level to synthesize the next finer
// LL sub-band from {LL, HL, LH, HH}. Only inverse transforms are
// implemented; spec.md's Non-goals exclude encoders.
package dwt

// Kind selects which lifting kernel a resolution level uses.
type Kind int

const (
	Reversible53 Kind = iota
	Irreversible97
)

// Inverse53 undoes the 5/3 reversible lifting transform on one 1-D
// signal of length samples, stored L...H... (all low-pass coefficients
// first, then all high-pass), writing the reconstructed interleaved
// signal back in place:
//
//	x[2i]   = y[2i]   - floor((y[2i-1] + y[2i+1] + 2) / 4)
//	x[2i+1] = y[2i+1] + floor((x[2i] + x[2i+2]) / 2)
//
// with symmetric boundary extension (a missing outer neighbor is
// replaced by its mirror across the edge).
func Inverse53(data []int32, length int) {
	if length < 2 {
		return
	}
	interleave(data, length)

	// Undo the low-pass update step.
	data[0] -= (data[1] + data[1] + 2) >> 2
	for i := 2; i < length-1; i += 2 {
		data[i] -= (data[i-1] + data[i+1] + 2) >> 2
	}
	if length&1 != 0 {
		data[length-1] -= (data[length-2] + data[length-2] + 2) >> 2
	}

	// Undo the high-pass predict step.
	for i := 1; i < length-1; i += 2 {
		data[i] += (data[i-1] + data[i+1]) >> 1
	}
	if length&1 == 0 {
		data[length-1] += data[length-2]
	}
}

// 9/7 lifting coefficients, per ITU-T Rec. T.800 Annex F.
const (
	alpha97 = -1.586134342059924
	beta97  = -0.052980118572961
	gamma97 = 0.882911075530934
	delta97 = 0.443506852043971
	k97     = 1.230174104914001
	k97Inv  = 0.812893066115961
)

// Inverse97 undoes the 9/7 irreversible lifting transform on one 1-D
// signal of length samples, stored L...H..., via four inverse lifting
// steps and the reciprocal K-factor rescaling.
func Inverse97(data []float32, length int) {
	if length < 2 {
		return
	}
	interleaveFloat(data, length)

	for i := 0; i < length; i += 2 {
		data[i] *= k97
	}
	for i := 1; i < length; i += 2 {
		data[i] *= k97Inv
	}

	data[0] -= 2 * delta97 * data[1]
	for i := 2; i < length-1; i += 2 {
		data[i] -= delta97 * (data[i-1] + data[i+1])
	}
	if length&1 != 0 {
		data[length-1] -= 2 * delta97 * data[length-2]
	}

	for i := 1; i < length-1; i += 2 {
		data[i] -= gamma97 * (data[i-1] + data[i+1])
	}
	if length&1 == 0 {
		data[length-1] -= 2 * gamma97 * data[length-2]
	}

	data[0] -= 2 * beta97 * data[1]
	for i := 2; i < length-1; i += 2 {
		data[i] -= beta97 * (data[i-1] + data[i+1])
	}
	if length&1 != 0 {
		data[length-1] -= 2 * beta97 * data[length-2]
	}

	for i := 1; i < length-1; i += 2 {
		data[i] -= alpha97 * (data[i-1] + data[i+1])
	}
	if length&1 == 0 {
		data[length-1] -= 2 * alpha97 * data[length-2]
	}
}

// interleave rearranges data from separated (L...H...) to interleaved
// (even/odd) order in place, using a scratch buffer.
func interleave(data []int32, length int) {
	if length < 2 {
		return
	}
	temp := make([]int32, length)
	copy(temp, data[:length])
	halfLen := (length + 1) / 2
	for i, j := 0, 0; j < halfLen; i, j = i+2, j+1 {
		data[i] = temp[j]
	}
	for i, j := 1, halfLen; j < length; i, j = i+2, j+1 {
		data[i] = temp[j]
	}
}

func interleaveFloat(data []float32, length int) {
	if length < 2 {
		return
	}
	temp := make([]float32, length)
	copy(temp, data[:length])
	halfLen := (length + 1) / 2
	for i, j := 0, 0; j < halfLen; i, j = i+2, j+1 {
		data[i] = temp[j]
	}
	for i, j := 1, halfLen; j < length; i, j = i+2, j+1 {
		data[i] = temp[j]
	}
}

// Inverse2D53 runs the inverse 5/3 transform on a width x height
// row-major grid: columns first, then rows, per spec.md §4.13's
// synthesis order.
func Inverse2D53(data []int32, width, height int) {
	col := make([]int32, height)
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			col[y] = data[y*width+x]
		}
		Inverse53(col, height)
		for y := 0; y < height; y++ {
			data[y*width+x] = col[y]
		}
	}
	for y := 0; y < height; y++ {
		Inverse53(data[y*width:(y+1)*width], width)
	}
}

// Inverse2D97 runs the inverse 9/7 transform on a width x height
// row-major grid: columns first, then rows.
func Inverse2D97(data []float32, width, height int) {
	col := make([]float32, height)
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			col[y] = data[y*width+x]
		}
		Inverse97(col, height)
		for y := 0; y < height; y++ {
			data[y*width+x] = col[y]
		}
	}
	for y := 0; y < height; y++ {
		Inverse97(data[y*width:(y+1)*width], width)
	}
}

// Level holds one resolution level's four sub-bands (LL is absent at
// the finest level being synthesized, since it is itself the output of
// the coarser level's synthesis).
type Level struct {
	LL, HL, LH, HH []float32
	// LLWidth/LLHeight describe the LL sub-band's own grid; HL/LH/HH
	// share the same dimensions as LL along the axis they don't split.
	LLWidth, LLHeight int
}

// Synthesize combines one resolution level's four sub-bands into the
// next-finer LL grid of size outWidth x outHeight, per spec.md §4.13:
// each sub-band is written into one quadrant of the combined grid
// before the inverse transform runs over it.
func Synthesize(lvl Level, kind Kind, outWidth, outHeight int) []float32 {
	out := make([]float32, outWidth*outHeight)
	w, h := lvl.LLWidth, lvl.LLHeight

	// Each sub-band occupies one quadrant of the combined grid (LL
	// top-left, HL top-right, LH bottom-left, HH bottom-right), the
	// separated L...H... layout Inverse2D53/Inverse2D97 expect per row
	// and column before they interleave it back to spatial order.
	put := func(src []float32, xOff, yOff int) {
		if src == nil {
			return
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				oy, ox := y+yOff*h, x+xOff*w
				if oy < outHeight && ox < outWidth {
					out[oy*outWidth+ox] = src[y*w+x]
				}
			}
		}
	}
	put(lvl.LL, 0, 0)
	put(lvl.HL, 1, 0)
	put(lvl.LH, 0, 1)
	put(lvl.HH, 1, 1)

	switch kind {
	case Reversible53:
		asInt := make([]int32, len(out))
		for i, v := range out {
			asInt[i] = int32(v)
		}
		Inverse2D53(asInt, outWidth, outHeight)
		for i, v := range asInt {
			out[i] = float32(v)
		}
	case Irreversible97:
		Inverse2D97(out, outWidth, outHeight)
	}
	return out
}
