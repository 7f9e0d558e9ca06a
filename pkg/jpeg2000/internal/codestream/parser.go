package codestream

import (
	"fmt"

	"github.com/novvoo/go-pdfcore/internal/bitio"
)

// Parser reads a raw JPEG2000 codestream (post ExtractCodestream) byte by
// byte via the shared bitio.Reader, per spec.md §4.10's marker-dispatch
// loop shape.
type Parser struct {
	r *bitio.Reader
	h *Header
}

// NewParser wraps a raw codestream (starting at SOC) for header reading.
func NewParser(data []byte) *Parser {
	return &Parser{
		r: bitio.NewReader(data),
		h: &Header{
			ComponentCodingStyles: make(map[uint16]CodingStyle),
			ComponentQuantization: make(map[uint16]Quantization),
		},
	}
}

func (p *Parser) readMarker() (Marker, error) {
	v, err := p.r.ReadU16()
	return Marker(v), err
}

// ReadMainHeader reads SOC, SIZ, then every subsequent main-header marker
// segment until SOT, returning the populated Header with the cursor left
// right after the SOT marker code (the caller reads SOT's fixed fields
// and the rest of the tile-part header next via ReadTilePartHeader).
func (p *Parser) ReadMainHeader() (*Header, error) {
	m, err := p.readMarker()
	if err != nil {
		return nil, fmt.Errorf("%w: reading SOC: %v", ErrInvalid, err)
	}
	if m != SOC {
		return nil, fmt.Errorf("%w: expected SOC, got %#x", ErrInvalid, m)
	}
	m, err = p.readMarker()
	if err != nil || m != SIZ {
		return nil, fmt.Errorf("%w: expected SIZ after SOC", ErrInvalid)
	}
	if err := p.readSIZ(); err != nil {
		return nil, err
	}

	for {
		m, err := p.readMarker()
		if err != nil {
			return nil, fmt.Errorf("%w: reading main header marker: %v", ErrInvalid, err)
		}
		switch {
		case m == SOT:
			if err := p.h.Validate(); err != nil {
				return nil, err
			}
			return p.h, nil
		case m == COD:
			if err := p.readCOD(); err != nil {
				return nil, err
			}
		case m == COC:
			if err := p.readCOC(); err != nil {
				return nil, err
			}
		case m == QCD:
			if err := p.readQCD(); err != nil {
				return nil, err
			}
		case m == QCC:
			if err := p.readQCC(); err != nil {
				return nil, err
			}
		case m == RGN:
			if err := p.skipSegment(); err != nil {
				return nil, err
			}
		case m == TLM:
			if err := p.readTLM(); err != nil {
				return nil, err
			}
		case m == COM:
			if err := p.readCOM(); err != nil {
				return nil, err
			}
		case m == PPM:
			if err := p.readPPM(); err != nil {
				return nil, err
			}
		case m == CRG:
			if err := p.skipSegment(); err != nil {
				return nil, err
			}
		case m >= 0xFF30 && m <= 0xFF3F:
			if err := p.skipSegment(); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: marker %#x in main header", ErrUnsupported, m)
		}
	}
}

// skipSegment reads a 2-byte length and discards the rest of the segment.
func (p *Parser) skipSegment() error {
	length, err := p.r.ReadU16()
	if err != nil {
		return fmt.Errorf("%w: segment length: %v", ErrInvalid, err)
	}
	if length < 2 {
		return fmt.Errorf("%w: segment length %d too short", ErrInvalid, length)
	}
	if _, err := p.r.ReadBytes(int(length) - 2); err != nil {
		return fmt.Errorf("%w: segment body: %v", ErrInvalid, err)
	}
	return nil
}

func (p *Parser) readSIZ() error {
	length, err := p.r.ReadU16()
	if err != nil {
		return err
	}
	rsiz, err := p.r.ReadU16()
	if err != nil {
		return err
	}
	p.h.Profile = rsiz

	fields := make([]uint32, 8)
	for i := range fields {
		v, err := p.r.ReadU32()
		if err != nil {
			return fmt.Errorf("%w: SIZ field %d: %v", ErrInvalid, i, err)
		}
		fields[i] = v
	}
	p.h.ImageWidth, p.h.ImageHeight = fields[0], fields[1]
	p.h.ImageXOffset, p.h.ImageYOffset = fields[2], fields[3]
	p.h.TileWidth, p.h.TileHeight = fields[4], fields[5]
	p.h.TileXOffset, p.h.TileYOffset = fields[6], fields[7]

	csiz, err := p.r.ReadU16()
	if err != nil {
		return err
	}
	if expect := 38 + 3*int(csiz); int(length) != expect {
		return fmt.Errorf("%w: SIZ length %d, expected %d", ErrInvalid, length, expect)
	}
	p.h.Components = make([]ComponentInfo, csiz)
	for i := range p.h.Components {
		ssiz, err := p.r.ReadByte()
		if err != nil {
			return err
		}
		xr, err := p.r.ReadByte()
		if err != nil {
			return err
		}
		yr, err := p.r.ReadByte()
		if err != nil {
			return err
		}
		p.h.Components[i] = ComponentInfo{BitDepth: ssiz, SubsamplingX: xr, SubsamplingY: yr}
	}
	return nil
}

const unsupportedCodeBlockStyle = CodeBlockBypass | CodeBlockReset | CodeBlockTermination |
	CodeBlockVerticalCausal | CodeBlockPredictableTerm | CodeBlockSegmentationSymbols

func (p *Parser) readCodingStyleBody(length int, hasSPcod bool) (CodingStyle, error) {
	var cs CodingStyle
	if hasSPcod {
		progOrder, err := p.r.ReadByte()
		if err != nil {
			return cs, err
		}
		numLayers, err := p.r.ReadU16()
		if err != nil {
			return cs, err
		}
		mct, err := p.r.ReadByte()
		if err != nil {
			return cs, err
		}
		p.h.ProgressionOrder = ProgressionOrder(progOrder)
		p.h.NumLayers = numLayers
		p.h.MCT = mct != 0
	}
	numDecomp, err := p.r.ReadByte()
	if err != nil {
		return cs, err
	}
	cbW, err := p.r.ReadByte()
	if err != nil {
		return cs, err
	}
	cbH, err := p.r.ReadByte()
	if err != nil {
		return cs, err
	}
	cbStyle, err := p.r.ReadByte()
	if err != nil {
		return cs, err
	}
	wavelet, err := p.r.ReadByte()
	if err != nil {
		return cs, err
	}
	cs.NumDecompositions = numDecomp
	cs.CodeBlockWidthExp = cbW
	cs.CodeBlockHeightExp = cbH
	cs.CodeBlockStyle = cbStyle
	cs.Wavelet = WaveletKind(wavelet)
	if cbStyle&unsupportedCodeBlockStyle != 0 {
		return cs, fmt.Errorf("%w: code-block style %#x", ErrUnsupported, cbStyle)
	}
	return cs, nil
}

func (p *Parser) readCOD() error {
	length, err := p.r.ReadU16()
	if err != nil {
		return err
	}
	scod, err := p.r.ReadByte()
	if err != nil {
		return err
	}
	cs, err := p.readCodingStyleBody(int(length), true)
	if err != nil {
		return err
	}
	cs.Flags = scod
	if cs.UsesPrecincts() {
		n := cs.NumResolutions()
		cs.PrecinctSizes = make([]PrecinctSize, n)
		for i := 0; i < n; i++ {
			pp, err := p.r.ReadByte()
			if err != nil {
				return err
			}
			cs.PrecinctSizes[i] = PrecinctSize{WidthExp: pp & 0x0F, HeightExp: (pp >> 4) & 0x0F}
		}
	}
	p.h.CodingStyle = cs
	return nil
}

func (p *Parser) readComponentIndex() (uint16, error) {
	if len(p.h.Components) < 257 {
		b, err := p.r.ReadByte()
		return uint16(b), err
	}
	return p.r.ReadU16()
}

func (p *Parser) readCOC() error {
	length, err := p.r.ReadU16()
	if err != nil {
		return err
	}
	compIdx, err := p.readComponentIndex()
	if err != nil {
		return err
	}
	scoc, err := p.r.ReadByte()
	if err != nil {
		return err
	}
	cs, err := p.readCodingStyleBody(int(length), false)
	if err != nil {
		return err
	}
	cs.Flags = scoc
	if cs.UsesPrecincts() {
		n := cs.NumResolutions()
		cs.PrecinctSizes = make([]PrecinctSize, n)
		for i := 0; i < n; i++ {
			pp, err := p.r.ReadByte()
			if err != nil {
				return err
			}
			cs.PrecinctSizes[i] = PrecinctSize{WidthExp: pp & 0x0F, HeightExp: (pp >> 4) & 0x0F}
		}
	}
	p.h.ComponentCodingStyles[compIdx] = cs
	return nil
}

func readStepSizes(r *bitio.Reader, style uint8, remaining int) ([]StepSize, error) {
	var sizes []StepSize
	if style == QuantizationNone {
		for i := 0; i < remaining; i++ {
			b, err := r.ReadByte()
			if err != nil {
				return nil, err
			}
			sizes = append(sizes, StepSize{Exponent: b >> 3})
		}
		return sizes, nil
	}
	for i := 0; i+2 <= remaining; i += 2 {
		v, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		sizes = append(sizes, StepSize{Exponent: uint8(v >> 11), Mantissa: v & 0x7FF})
	}
	return sizes, nil
}

func (p *Parser) readQCD() error {
	length, err := p.r.ReadU16()
	if err != nil {
		return err
	}
	sqcd, err := p.r.ReadByte()
	if err != nil {
		return err
	}
	style := sqcd & 0x1F
	sizes, err := readStepSizes(p.r, style, int(length)-3)
	if err != nil {
		return err
	}
	p.h.Quantization = Quantization{Style: style, NumGuardBits: sqcd >> 5, StepSizes: sizes}
	return nil
}

func (p *Parser) readQCC() error {
	length, err := p.r.ReadU16()
	if err != nil {
		return err
	}
	compIdx, err := p.readComponentIndex()
	if err != nil {
		return err
	}
	compIdxBytes := 1
	if len(p.h.Components) >= 257 {
		compIdxBytes = 2
	}
	sqcc, err := p.r.ReadByte()
	if err != nil {
		return err
	}
	style := sqcc & 0x1F
	sizes, err := readStepSizes(p.r, style, int(length)-3-compIdxBytes)
	if err != nil {
		return err
	}
	p.h.ComponentQuantization[compIdx] = Quantization{Style: style, NumGuardBits: sqcc >> 5, StepSizes: sizes}
	return nil
}

func (p *Parser) readTLM() error {
	length, err := p.r.ReadU16()
	if err != nil {
		return err
	}
	if _, err := p.r.ReadByte(); err != nil { // Ztlm
		return err
	}
	stlm, err := p.r.ReadByte()
	if err != nil {
		return err
	}
	st := int((stlm >> 4) & 0x3) // tile-index field size: 0, 1, or 2 bytes
	sp := 2
	if stlm&0x40 != 0 {
		sp = 4
	}
	remaining := int(length) - 4
	for remaining > 0 {
		var tileIdx uint16
		if st == 1 {
			b, err := p.r.ReadByte()
			if err != nil {
				return err
			}
			tileIdx = uint16(b)
			remaining--
		} else if st == 2 {
			v, err := p.r.ReadU16()
			if err != nil {
				return err
			}
			tileIdx = v
			remaining -= 2
		}
		var tileLen uint32
		if sp == 2 {
			v, err := p.r.ReadU16()
			if err != nil {
				return err
			}
			tileLen = uint32(v)
		} else {
			v, err := p.r.ReadU32()
			if err != nil {
				return err
			}
			tileLen = v
		}
		remaining -= sp
		p.h.TileLengths = append(p.h.TileLengths, TileLength{TileIndex: tileIdx, Length: tileLen})
	}
	return nil
}

func (p *Parser) readCOM() error {
	length, err := p.r.ReadU16()
	if err != nil {
		return err
	}
	rcom, err := p.r.ReadU16()
	if err != nil {
		return err
	}
	body, err := p.r.ReadBytes(int(length) - 4)
	if err != nil {
		return err
	}
	if rcom == 1 {
		p.h.Comment = string(body)
	}
	return nil
}

// readPPM collects packed packet-header bytes. This module supports
// reading them only as an opaque trailing buffer: the interleaved
// per-tile-part Nppm framing (Annex A.7.4) is not decoded, so a
// codestream carrying PPM data cannot currently be fully decoded — see
// the scope decision recorded in DESIGN.md.
func (p *Parser) readPPM() error {
	length, err := p.r.ReadU16()
	if err != nil {
		return err
	}
	if _, err := p.r.ReadByte(); err != nil { // Zppm
		return err
	}
	body, err := p.r.ReadBytes(int(length) - 3)
	if err != nil {
		return err
	}
	p.h.PackedHeaders = append(p.h.PackedHeaders, body...)
	return nil
}

// TilePartHeader is the fixed SOT field set plus any tile-part-local
// marker overrides read before SOD.
type TilePartHeader struct {
	TileIndex     uint16
	PartLength    uint32
	TilePartIndex uint8
	NumTileParts  uint8
}

// ReadTilePartHeader reads the fixed SOT fields (marker already consumed
// by ReadMainHeader's loop termination, or by the caller after the
// previous tile-part's body) and then any COD/COC/QCD/QCC/COM overrides
// up to SOD.
func (p *Parser) ReadTilePartHeader(h *Header) (TilePartHeader, error) {
	var tph TilePartHeader
	length, err := p.r.ReadU16()
	if err != nil {
		return tph, err
	}
	if length != 10 {
		return tph, fmt.Errorf("%w: SOT length %d", ErrInvalid, length)
	}
	tileIdx, err := p.r.ReadU16()
	if err != nil {
		return tph, err
	}
	partLen, err := p.r.ReadU32()
	if err != nil {
		return tph, err
	}
	partIdx, err := p.r.ReadByte()
	if err != nil {
		return tph, err
	}
	numParts, err := p.r.ReadByte()
	if err != nil {
		return tph, err
	}
	tph = TilePartHeader{TileIndex: tileIdx, PartLength: partLen, TilePartIndex: partIdx, NumTileParts: numParts}

	for {
		m, err := p.readMarker()
		if err != nil {
			return tph, err
		}
		switch {
		case m == SOD:
			return tph, nil
		case m == COD:
			if err := p.readCOD(); err != nil {
				return tph, err
			}
		case m == COC:
			if err := p.readCOC(); err != nil {
				return tph, err
			}
		case m == QCD:
			if err := p.readQCD(); err != nil {
				return tph, err
			}
		case m == QCC:
			if err := p.readQCC(); err != nil {
				return tph, err
			}
		case m == COM:
			if err := p.readCOM(); err != nil {
				return tph, err
			}
		case m == RGN:
			if err := p.skipSegment(); err != nil {
				return tph, err
			}
		case m >= 0xFF30 && m <= 0xFF3F:
			if err := p.skipSegment(); err != nil {
				return tph, err
			}
		default:
			return tph, fmt.Errorf("%w: marker %#x in tile-part header", ErrUnsupported, m)
		}
	}
}

// Reader exposes the underlying bitio.Reader so the caller can read the
// tile-part's compressed data following SOD, and seek past it to the
// next SOT/EOC.
func (p *Parser) Reader() *bitio.Reader { return p.r }
