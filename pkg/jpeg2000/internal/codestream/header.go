package codestream

// ComponentInfo is one SIZ component entry.
type ComponentInfo struct {
	BitDepth     uint8 // Ssiz: bit 7 signed flag, low 7 bits precision-1
	SubsamplingX uint8
	SubsamplingY uint8
}

// Precision returns the sample bit precision, 1..38.
func (c ComponentInfo) Precision() int { return int(c.BitDepth&0x7F) + 1 }

// IsSigned reports whether samples are signed.
func (c ComponentInfo) IsSigned() bool { return c.BitDepth&0x80 != 0 }

// PrecinctSize holds one resolution level's precinct exponents.
type PrecinctSize struct {
	WidthExp  uint8 // PPx
	HeightExp uint8 // PPy
}

// CodingStyle holds the fields shared by COD (default) and COC
// (per-component) marker segments.
type CodingStyle struct {
	Flags              uint8 // Scod/Scoc
	NumDecompositions  uint8
	CodeBlockWidthExp  uint8
	CodeBlockHeightExp uint8
	CodeBlockStyle     uint8
	Wavelet            WaveletKind
	PrecinctSizes      []PrecinctSize // one per resolution level, finest last per Annex A.6.1 order (coarsest first)
}

// CodeBlockWidth returns the code-block width in samples.
func (c CodingStyle) CodeBlockWidth() int { return 1 << (c.CodeBlockWidthExp + 2) }

// CodeBlockHeight returns the code-block height in samples.
func (c CodingStyle) CodeBlockHeight() int { return 1 << (c.CodeBlockHeightExp + 2) }

// NumResolutions returns the number of resolution levels (decompositions+1).
func (c CodingStyle) NumResolutions() int { return int(c.NumDecompositions) + 1 }

// UsesPrecincts reports whether custom precinct sizes were signalled.
func (c CodingStyle) UsesPrecincts() bool { return c.Flags&CodingStylePrecincts != 0 }

// PrecinctSizeFor returns the precinct exponents for resolution level r (0
// = coarsest, matching the wire order), defaulting to (15,15) — the
// "no custom precincts" value per spec.md §4.10 — when none were carried
// or r is out of range.
func (c CodingStyle) PrecinctSizeFor(r int) PrecinctSize {
	if !c.UsesPrecincts() || r < 0 || r >= len(c.PrecinctSizes) {
		return PrecinctSize{WidthExp: 15, HeightExp: 15}
	}
	return c.PrecinctSizes[r]
}

// StepSize is one QCD/QCC sub-band quantization step.
type StepSize struct {
	Exponent uint8 // 5 bits
	Mantissa uint16 // 11 bits
}

// Quantization holds QCD (default) / QCC (per-component) fields.
type Quantization struct {
	Style        uint8 // low 5 bits of Sqcd/Sqcc
	NumGuardBits uint8 // high 3 bits
	StepSizes    []StepSize
}

// Header aggregates everything spec.md §4.10 pulls out of the main
// codestream header: SIZ, COD, per-component COC overrides, QCD, and
// per-component QCC overrides.
type Header struct {
	Profile uint16 // Rsiz

	ImageWidth, ImageHeight   uint32
	ImageXOffset, ImageYOffset uint32
	TileWidth, TileHeight     uint32
	TileXOffset, TileYOffset  uint32

	Components []ComponentInfo

	ProgressionOrder ProgressionOrder
	NumLayers        uint16
	MCT              bool

	CodingStyle             CodingStyle
	ComponentCodingStyles   map[uint16]CodingStyle
	Quantization            Quantization
	ComponentQuantization   map[uint16]Quantization

	TileLengths    []TileLength
	Comment        string
	PackedHeaders  []byte // PPM-collected packet headers, concatenated in tile-part order
}

// TileLength is one TLM entry.
type TileLength struct {
	TileIndex uint16
	Length    uint32
}

// NumTilesX / NumTilesY derive the tile grid dimensions (Annex B.1).
func (h *Header) NumTilesX() uint32 {
	return (h.ImageWidth - h.TileXOffset + h.TileWidth - 1) / h.TileWidth
}
func (h *Header) NumTilesY() uint32 {
	return (h.ImageHeight - h.TileYOffset + h.TileHeight - 1) / h.TileHeight
}

// CodingStyleFor returns the effective coding style for component c,
// falling back to the default COD when no COC override exists.
func (h *Header) CodingStyleFor(c uint16) CodingStyle {
	if cs, ok := h.ComponentCodingStyles[c]; ok {
		return cs
	}
	return h.CodingStyle
}

// QuantizationFor returns the effective quantization for component c,
// falling back to the default QCD when no QCC override exists.
func (h *Header) QuantizationFor(c uint16) Quantization {
	if q, ok := h.ComponentQuantization[c]; ok {
		return q
	}
	return h.Quantization
}

// Validate checks the header for the bounds spec.md §4.10/§5 requires.
func (h *Header) Validate() error {
	if h.ImageWidth == 0 || h.ImageHeight == 0 {
		return ErrInvalid
	}
	if h.ImageWidth > 60000 || h.ImageHeight > 60000 {
		return ErrInvalid
	}
	if h.TileWidth == 0 || h.TileHeight == 0 {
		return ErrInvalid
	}
	if h.ImageXOffset >= h.ImageWidth || h.ImageYOffset >= h.ImageHeight {
		return ErrInvalid
	}
	if h.TileXOffset > h.ImageXOffset || h.TileYOffset > h.ImageYOffset {
		return ErrInvalid
	}
	if uint64(h.TileXOffset)+uint64(h.TileWidth) <= uint64(h.ImageXOffset) {
		return ErrInvalid
	}
	if uint64(h.TileYOffset)+uint64(h.TileHeight) <= uint64(h.ImageYOffset) {
		return ErrInvalid
	}
	if len(h.Components) == 0 {
		return ErrInvalid
	}
	for _, c := range h.Components {
		if c.Precision() < 1 || c.Precision() > 38 {
			return ErrInvalid
		}
		if c.SubsamplingX == 0 || c.SubsamplingY == 0 {
			return ErrInvalid
		}
	}
	if h.CodingStyle.NumResolutions() > 33 {
		return ErrInvalid
	}
	if h.NumLayers == 0 || h.NumLayers > 32 {
		return ErrInvalid
	}
	return nil
}
