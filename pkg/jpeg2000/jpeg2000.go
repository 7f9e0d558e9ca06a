// Package jpeg2000 decodes JPEG2000 codestreams (raw or JP2-box-wrapped)
// per spec.md §4.10-4.13: marker-driven header parsing, tag-tree packet
// headers, the 19-context bit-plane entropy decoder, inverse wavelet
// synthesis, and the inverse multi-component transform.
package jpeg2000

import (
	"fmt"
	"image"

	"github.com/novvoo/go-pdfcore/internal/bitio"
	"github.com/novvoo/go-pdfcore/pkg/jpeg2000/internal/codestream"
	"github.com/novvoo/go-pdfcore/pkg/jpeg2000/internal/dwt"
	"github.com/novvoo/go-pdfcore/pkg/jpeg2000/internal/entropy"
	"github.com/novvoo/go-pdfcore/pkg/jpeg2000/internal/mct"
)

// Settings controls optional decode behavior per spec.md §6.2.
type Settings struct {
	// TargetResolution is accepted but not consulted: Decode always
	// synthesizes every resolution level and returns full-size planes.
	TargetResolution *image.Point
	// Strict is accepted but not consulted: PPM-packed headers and POC
	// markers are rejected with an error whether it is set or not, and
	// no other check depends on it.
	Strict bool
}

// ChannelData is one decoded component's sample plane, per spec.md §6.2.
type ChannelData struct {
	Samples  []float32
	BitDepth uint8
	IsAlpha  bool
}

// Decode implements the top-level entry point of spec.md §6.2.
func Decode(data []byte, settings Settings) ([]ChannelData, error) {
	raw := codestream.ExtractCodestream(data)
	parser := codestream.NewParser(raw)
	header, err := parser.ReadMainHeader()
	if err != nil {
		return nil, err
	}
	if header.ImageWidth > 60000 || header.ImageHeight > 60000 {
		return nil, ErrInvalid
	}
	if len(header.PackedHeaders) > 0 {
		return nil, fmt.Errorf("%w: PPM packed packet headers", ErrUnsupported)
	}

	tileData, err := collectTileParts(parser, header)
	if err != nil {
		return nil, err
	}

	numComponents := len(header.Components)
	out := make([]ChannelData, numComponents)
	for c, comp := range header.Components {
		out[c] = ChannelData{BitDepth: uint8(comp.Precision()), Samples: make([]float32, header.ImageWidth*header.ImageHeight)}
	}

	numTilesX := int(header.NumTilesX())
	for tileIdx, body := range tileData {
		tx := int(tileIdx) % numTilesX
		ty := int(tileIdx) / numTilesX
		tileX0 := int(header.TileXOffset) + tx*int(header.TileWidth)
		tileY0 := int(header.TileYOffset) + ty*int(header.TileHeight)
		tileW := int(header.TileWidth)
		if tileX0+tileW > int(header.ImageWidth) {
			tileW = int(header.ImageWidth) - tileX0
		}
		tileH := int(header.TileHeight)
		if tileY0+tileH > int(header.ImageHeight) {
			tileH = int(header.ImageHeight) - tileY0
		}

		comps, err := decodeTile(header, body, tileW, tileH, settings)
		if err != nil {
			return nil, err
		}
		for c := range comps {
			placeComponent(out[c].Samples, comps[c], int(header.ImageWidth), tileX0, tileY0, tileW, tileH)
		}
	}

	return out, nil
}

func placeComponent(dst []float32, src []float32, imageWidth, x0, y0, w, h int) {
	for y := 0; y < h; y++ {
		srcRow := src[y*w : y*w+w]
		dstOff := (y0+y)*imageWidth + x0
		copy(dst[dstOff:dstOff+w], srcRow)
	}
}

// collectTileParts reads every SOT/SOD tile-part in the codestream,
// concatenating same-tile parts in tile_part_index order, per spec.md
// §4.10. The parser's cursor sits right after the SOT marker consumed
// by ReadMainHeader (or by a previous iteration of this loop).
func collectTileParts(parser *codestream.Parser, header *codestream.Header) (map[uint16][]byte, error) {
	r := parser.Reader()
	tileData := map[uint16][]byte{}
	tileParts := map[uint16]map[uint8][]byte{}

	sotStart := r.BytePos() - 2
	for {
		tph, err := parser.ReadTilePartHeader(header)
		if err != nil {
			return nil, err
		}
		consumed := r.BytePos() - sotStart
		bodyLen := int(tph.PartLength) - consumed
		if bodyLen < 0 {
			return nil, codestream.ErrInvalid
		}
		body, err := r.ReadBytes(bodyLen)
		if err != nil {
			return nil, err
		}
		if tileParts[tph.TileIndex] == nil {
			tileParts[tph.TileIndex] = map[uint8][]byte{}
		}
		tileParts[tph.TileIndex][tph.TilePartIndex] = append([]byte(nil), body...)

		m, err := r.PeekBits(16)
		if err != nil {
			break
		}
		if codestream.Marker(m) == codestream.EOC {
			break
		}
		if codestream.Marker(m) != codestream.SOT {
			return nil, fmt.Errorf("%w: marker %#x between tile-parts", codestream.ErrInvalid, m)
		}
		if _, err := r.ReadBits(16); err != nil {
			return nil, err
		}
		sotStart = r.BytePos() - 2
	}

	for tileIdx, parts := range tileParts {
		for i := uint8(0); i < uint8(len(parts)); i++ {
			tileData[tileIdx] = append(tileData[tileIdx], parts[i]...)
		}
	}
	return tileData, nil
}

// decodeTile fully decodes one tile's coded body into per-component
// sample planes at the tile's own dimensions, running the packet/entropy/
// wavelet/MCT pipeline of spec.md §4.11-4.13.
func decodeTile(header *codestream.Header, body []byte, tileW, tileH int, settings Settings) ([][]float32, error) {
	numComponents := len(header.Components)
	compResolutions := make([]int, numComponents)
	bandTracks := make([][][]*bandTrack, numComponents) // [component][resolution][band]
	compDims := make([][2]int, numComponents)

	maxResolutions := 0
	for c := range header.Components {
		cs := header.CodingStyleFor(uint16(c))
		compResolutions[c] = cs.NumResolutions()
		if compResolutions[c] > maxResolutions {
			maxResolutions = compResolutions[c]
		}
		cw, ch := tileComponentDims(header, tileW, tileH, c)
		compDims[c] = [2]int{cw, ch}

		bandTracks[c] = make([][]*bandTrack, compResolutions[c])
		for r := 0; r < compResolutions[c]; r++ {
			kinds := codestream.SubbandsForResolution(r)
			bands := make([]*bandTrack, len(kinds))
			for i, k := range kinds {
				sw, sh := subbandDims(cw, ch, int(cs.NumDecompositions), r, k)
				bands[i] = newBandTrack(k, sw, sh, cs.CodeBlockWidth(), cs.CodeBlockHeight())
			}
			bandTracks[c][r] = bands
		}
	}

	seq := codestream.ProgressionSequence(header.ProgressionOrder, int(header.NumLayers), maxResolutions, numComponents, compResolutions)

	pos := 0
	for _, tup := range seq {
		cs := header.CodingStyleFor(uint16(tup.Component))
		if cs.Flags&codestream.CodingStyleSOP != 0 {
			if pos+6 <= len(body) && body[pos] == 0xFF && body[pos+1] == 0x91 {
				pos += 6
			}
		}
		if pos > len(body) {
			return nil, codestream.ErrInvalid
		}
		pr := bitio.NewPacketReader(body[pos:])
		included, err := decodePacketHeader(pr, tup.Layer, bandTracks[tup.Component][tup.Resolution])
		if err != nil {
			return nil, err
		}
		pr.Align()
		pos += pr.Underlying().BytePos()

		if cs.Flags&codestream.CodingStyleEPH != 0 {
			if pos+2 <= len(body) && body[pos] == 0xFF && body[pos+1] == 0x92 {
				pos += 2
			}
		}
		for _, ib := range included {
			if pos+ib.added > len(body) {
				return nil, codestream.ErrInvalid
			}
			cb := &ib.band.blocks[ib.index]
			cb.coded = append(cb.coded, body[pos:pos+ib.added]...)
			pos += ib.added
		}
	}

	out := make([][]float32, numComponents)
	for c, comp := range header.Components {
		cs := header.CodingStyleFor(uint16(c))
		quant := header.QuantizationFor(uint16(c))
		cw, ch := compDims[c][0], compDims[c][1]
		reversible := cs.Wavelet == codestream.Wavelet53
		noQuant := quant.Style == codestream.QuantizationNone

		ll, err := decodeResolution0(bandTracks[c][0][0], comp.Precision(), quant, reversible, noQuant)
		if err != nil {
			return nil, err
		}
		llW, llH := resolutionDims(cw, ch, int(cs.NumDecompositions), 0)

		for r := 1; r < compResolutions[c]; r++ {
			hl, lh, hh, err := decodeDetailBands(bandTracks[c][r], comp.Precision(), r, quant, reversible, noQuant)
			if err != nil {
				return nil, err
			}
			outW, outH := resolutionDims(cw, ch, int(cs.NumDecompositions), r)
			kind := dwt.Reversible53
			if !reversible {
				kind = dwt.Irreversible97
			}
			ll = dwt.Synthesize(dwt.Level{LL: ll, HL: hl, LH: lh, HH: hh, LLWidth: llW, LLHeight: llH}, kind, outW, outH)
			llW, llH = outW, outH
		}

		mct.LevelShift(ll, comp.Precision())
		out[c] = ll
	}

	lengths := make([]int, len(out))
	for i, s := range out {
		lengths[i] = len(s)
	}
	if mct.Applicable(header.MCT, lengths) {
		applyMCT(header, out)
	}

	return out, nil
}

func applyMCT(header *codestream.Header, out [][]float32) {
	reversible := header.CodingStyle.Wavelet == codestream.Wavelet53
	// MCT runs before the per-component level shift in the forward
	// direction, so undo the shift here, apply the transform, then
	// reapply it, keeping decodeTile's per-component shift symmetric.
	precision := 8
	if len(header.Components) > 0 {
		precision = header.Components[0].Precision()
	}
	shift := float32(int64(1) << uint(precision-1))
	for _, s := range out[:3] {
		for i := range s {
			s[i] -= shift
		}
	}
	if reversible {
		y := make([]int32, len(out[0]))
		cb := make([]int32, len(out[1]))
		cr := make([]int32, len(out[2]))
		for i := range y {
			y[i] = int32(out[0][i])
			cb[i] = int32(out[1][i])
			cr[i] = int32(out[2][i])
		}
		mct.InverseReversible(y, cb, cr)
		for i := range y {
			out[0][i] = float32(y[i])
			out[1][i] = float32(cb[i])
			out[2][i] = float32(cr[i])
		}
	} else {
		mct.InverseIrreversible(out[0], out[1], out[2])
	}
	for _, s := range out[:3] {
		for i := range s {
			s[i] += shift
		}
	}
}

// decodeResolution0 decodes and dequantizes the single LL band present
// at resolution 0.
func decodeResolution0(bt *bandTrack, precision int, quant codestream.Quantization, reversible, noQuant bool) ([]float32, error) {
	return decodeBand(bt, precision, 0, quant, reversible, noQuant, codestream.SubbandLL)
}

func decodeDetailBands(bands []*bandTrack, precision, r int, quant codestream.Quantization, reversible, noQuant bool) (hl, lh, hh []float32, err error) {
	for _, bt := range bands {
		samples, derr := decodeBand(bt, precision, r, quant, reversible, noQuant, bt.kind)
		if derr != nil {
			return nil, nil, nil, derr
		}
		switch bt.kind {
		case codestream.SubbandHL:
			hl = samples
		case codestream.SubbandLH:
			lh = samples
		case codestream.SubbandHH:
			hh = samples
		}
	}
	return hl, lh, hh, nil
}

func decodeBand(bt *bandTrack, precision, r int, quant codestream.Quantization, reversible, noQuant bool, kind codestream.SubbandKind) ([]float32, error) {
	w, h := bt.gridDims()
	samples := make([]float32, w*h)
	for bi := range bt.blocks {
		cb := &bt.blocks[bi]
		bw, bh := cb.x1-cb.x0, cb.y1-cb.y0
		if bw <= 0 || bh <= 0 {
			continue
		}
		var values []int32
		if cb.included {
			totalBitplanes := precision + int(quant.NumGuardBits)
			numBitPlanes := totalBitplanes - cb.zeroBitPlanes
			state := &entropy.CodeBlockState{X0: cb.x0, Y0: cb.y0, X1: cb.x1, Y1: cb.y1, CodedData: cb.coded}
			if err := entropy.Decode(state, numBitPlanes, entropy.Band(kind)); err != nil {
				return nil, err
			}
			values = state.Data
		} else {
			values = make([]int32, bw*bh)
		}
		if reversible && noQuant {
			for y := 0; y < bh; y++ {
				for x := 0; x < bw; x++ {
					samples[(cb.y0+y)*w+(cb.x0+x)] = float32(values[y*bw+x])
				}
			}
			continue
		}
		delta := subbandStepSize(quant, kind, r, precision)
		deq := entropy.Dequantize(values, delta)
		for y := 0; y < bh; y++ {
			for x := 0; x < bw; x++ {
				samples[(cb.y0+y)*w+(cb.x0+x)] = deq[y*bw+x]
			}
		}
	}
	return samples, nil
}

func (bt *bandTrack) gridDims() (int, int) {
	w, h := 0, 0
	for _, cb := range bt.blocks {
		if cb.x1 > w {
			w = cb.x1
		}
		if cb.y1 > h {
			h = cb.y1
		}
	}
	return w, h
}

// subbandGain is the sub-band's contribution to R_b in spec.md §4.12's
// dequantization formula (Table E.1): LL carries no extra gain, HL/LH
// one bit, HH two.
func subbandGain(kind codestream.SubbandKind) int {
	switch kind {
	case codestream.SubbandHL, codestream.SubbandLH:
		return 1
	case codestream.SubbandHH:
		return 2
	default:
		return 0
	}
}

// subbandStepSize resolves the dequantization step for sub-band kind at
// decomposition level r, per spec.md §4.12: Δ_b = 2^(R_b-ε_b)(1+μ_b/2^11)
// with R_b = precision + the sub-band's gain bits, independent of the
// decomposition level itself. ScalarExpounded carries one step-size
// entry per sub-band; ScalarDerived carries only the LL entry, whose
// mantissa every sub-band shares and whose exponent is lowered by r-1
// for the detail bands of resolution r (clamped at 0).
func subbandStepSize(quant codestream.Quantization, kind codestream.SubbandKind, r, precision int) float64 {
	if len(quant.StepSizes) == 0 {
		return 1
	}
	var idx int
	switch quant.Style {
	case codestream.QuantizationScalarExpounded:
		if r == 0 {
			idx = 0
		} else {
			idx = 1 + 3*(r-1) + int(kind) - 1
		}
	default:
		idx = 0
	}
	if idx < 0 || idx >= len(quant.StepSizes) {
		idx = len(quant.StepSizes) - 1
	}
	ss := quant.StepSizes[idx]
	eps := ss.Exponent
	if quant.Style == codestream.QuantizationScalarDerived && r > 1 {
		if int(eps) > r-1 {
			eps -= uint8(r - 1)
		} else {
			eps = 0
		}
	}
	rb := precision + subbandGain(kind)
	return entropy.StepSize(rb, eps, ss.Mantissa)
}
