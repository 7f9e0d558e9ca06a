package jbig2

import (
	"fmt"

	"github.com/novvoo/go-pdfcore/internal/bitio"
)

// SegmentType names per ISO/IEC 14492 Table 1 (spec.md §3.2).
type SegmentType uint8

const (
	SegSymbolDict          SegmentType = 0
	SegTextRegionIntermed  SegmentType = 4
	SegTextRegionImmediate SegmentType = 6
	SegTextRegionImmLossl  SegmentType = 7
	SegPatternDict         SegmentType = 16
	SegHalftoneIntermed    SegmentType = 20
	SegHalftoneImmediate   SegmentType = 22
	SegHalftoneImmLossl    SegmentType = 23
	SegGenericIntermed     SegmentType = 36
	SegGenericImmediate    SegmentType = 38
	SegGenericImmLossl     SegmentType = 39
	SegRefinementIntermed  SegmentType = 40
	SegRefinementImmediate SegmentType = 42
	SegPageInfo            SegmentType = 48
	SegEndOfPage           SegmentType = 49
	SegEndOfStripe         SegmentType = 50
	SegEndOfFile           SegmentType = 51
	SegProfiles            SegmentType = 52
	SegTables              SegmentType = 53
	SegExtension           SegmentType = 62
)

// SegmentHeader is the fixed-shape segment header of spec.md §3.2.
type SegmentHeader struct {
	Number     uint32
	Type       SegmentType
	Referred   []uint32
	PageAssoc  uint32
	DataLength uint32
}

// fileHeaderMagic is the 8-byte JBIG2 file-header signature of spec.md
// §6.1.
var fileHeaderMagic = [8]byte{0x97, 0x4A, 0x42, 0x32, 0x0D, 0x0A, 0x1A, 0x0A}

// hasFileHeader reports whether data begins with the JBIG2 magic.
func hasFileHeader(data []byte) bool {
	if len(data) < 8 {
		return false
	}
	for i, b := range fileHeaderMagic {
		if data[i] != b {
			return false
		}
	}
	return true
}

// readSegmentHeader parses one segment header per spec.md §3.2 /
// §6.1's layout description.
func readSegmentHeader(r *bitio.Reader) (*SegmentHeader, error) {
	number, err := r.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("%w: segment number: %v", ErrParse, err)
	}
	flags, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: segment flags: %v", ErrParse, err)
	}
	segType := SegmentType(flags & 0x3F)
	pageAssocSize4 := flags&0x40 != 0

	refFlags, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: referred-to flags: %v", ErrParse, err)
	}
	var refCount int
	var retainBytes int
	if refFlags>>5 == 7 {
		// Long form: low 5 bits of this byte are the high bits of a
		// 4-byte count, followed by retain-bit bytes.
		r2 := refFlags & 0x1F
		b2, err := r.ReadBytes(3)
		if err != nil {
			return nil, fmt.Errorf("%w: long referred-to count: %v", ErrParse, err)
		}
		refCount = int(uint32(r2)<<24 | uint32(b2[0])<<16 | uint32(b2[1])<<8 | uint32(b2[2]))
		retainBytes = (refCount + 8) / 8
		if _, err := r.ReadBytes(retainBytes); err != nil {
			return nil, fmt.Errorf("%w: retain flags: %v", ErrParse, err)
		}
	} else {
		refCount = int(refFlags >> 5)
	}

	refSize := 1
	if number > 65536 {
		refSize = 4
	} else if number > 256 {
		refSize = 2
	}
	referred := make([]uint32, refCount)
	for i := 0; i < refCount; i++ {
		switch refSize {
		case 1:
			b, err := r.ReadByte()
			if err != nil {
				return nil, fmt.Errorf("%w: referred segment number: %v", ErrParse, err)
			}
			referred[i] = uint32(b)
		case 2:
			v, err := r.ReadU16()
			if err != nil {
				return nil, fmt.Errorf("%w: referred segment number: %v", ErrParse, err)
			}
			referred[i] = uint32(v)
		default:
			v, err := r.ReadU32()
			if err != nil {
				return nil, fmt.Errorf("%w: referred segment number: %v", ErrParse, err)
			}
			referred[i] = v
		}
	}

	var pageAssoc uint32
	if pageAssocSize4 {
		pageAssoc, err = r.ReadU32()
	} else {
		var b byte
		b, err = r.ReadByte()
		pageAssoc = uint32(b)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: page association: %v", ErrParse, err)
	}

	length, err := r.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("%w: data length: %v", ErrParse, err)
	}

	return &SegmentHeader{
		Number:     number,
		Type:       segType,
		Referred:   referred,
		PageAssoc:  pageAssoc,
		DataLength: length,
	}, nil
}
