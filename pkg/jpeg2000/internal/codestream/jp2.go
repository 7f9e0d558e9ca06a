package codestream

import "encoding/binary"

const (
	jp2SignatureBox uint32 = 0x6A502020 // 'jP  '
	jp2CodeStreamBox uint32 = 0x6A703263 // 'jp2c'
)

// ExtractCodestream strips the ISO/IEC 15444-1 Annex I box wrapper when
// data is a JP2 file, returning the bare codestream (starting at SOC).
// When data is already a raw codestream (starts with the SOC marker) it
// is returned unchanged, per spec.md §4.10's grounding note.
func ExtractCodestream(data []byte) []byte {
	if len(data) >= 2 && Marker(binary.BigEndian.Uint16(data[0:2])) == SOC {
		return data
	}
	offset := 0
	for offset+8 <= len(data) {
		boxLen := int(binary.BigEndian.Uint32(data[offset : offset+4]))
		boxType := binary.BigEndian.Uint32(data[offset+4 : offset+8])
		headerLen := 8
		if boxLen == 1 {
			if offset+16 > len(data) {
				break
			}
			boxLen = int(binary.BigEndian.Uint64(data[offset+8 : offset+16]))
			headerLen = 16
		} else if boxLen == 0 {
			boxLen = len(data) - offset
		}
		if boxLen < headerLen || offset+boxLen > len(data) {
			break
		}
		if boxType == jp2CodeStreamBox {
			return data[offset+headerLen : offset+boxLen]
		}
		offset += boxLen
	}
	return data
}

// IsJP2 reports whether data begins with the JP2 signature box.
func IsJP2(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	boxLen := binary.BigEndian.Uint32(data[0:4])
	boxType := binary.BigEndian.Uint32(data[4:8])
	return boxLen == 12 && boxType == jp2SignatureBox && binary.BigEndian.Uint32(data[8:12]) == 0x0D0A870A
}
