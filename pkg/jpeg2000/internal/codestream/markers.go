// Package codestream parses JPEG2000 codestream main headers, tile-part
// headers, and the JP2 box wrapper, per spec.md §4.10.
package codestream

// Marker is a JPEG2000 marker code (ISO/IEC 15444-1 Annex A).
type Marker uint16

const (
	SOC Marker = 0xFF4F // Start of codestream
	SOT Marker = 0xFF90 // Start of tile-part
	SOD Marker = 0xFF93 // Start of data
	EOC Marker = 0xFFD9 // End of codestream

	SIZ Marker = 0xFF51 // Image and tile size
	COD Marker = 0xFF52 // Coding style default
	COC Marker = 0xFF53 // Coding style component
	RGN Marker = 0xFF5E // Region of interest
	QCD Marker = 0xFF5C // Quantization default
	QCC Marker = 0xFF5D // Quantization component
	POC Marker = 0xFF5F // Progression order change

	TLM Marker = 0xFF55 // Tile-part lengths
	PLM Marker = 0xFF57 // Packet length, main header
	PLT Marker = 0xFF58 // Packet length, tile-part header
	PPM Marker = 0xFF60 // Packed packet headers, main header
	PPT Marker = 0xFF61 // Packed packet headers, tile-part header

	SOP Marker = 0xFF91 // Start of packet
	EPH Marker = 0xFF92 // End of packet header

	CRG Marker = 0xFF63 // Component registration
	COM Marker = 0xFF64 // Comment
)

// HasLength reports whether a marker segment carries a 16-bit length
// field (all but the four delimiting markers do).
func (m Marker) HasLength() bool {
	switch m {
	case SOC, SOD, EOC, EPH:
		return false
	default:
		return true
	}
}

// Coding-style (Scod) flag bits, COD/COC SPcod byte 0.
const (
	CodingStylePrecincts uint8 = 0x01
	CodingStyleSOP       uint8 = 0x02
	CodingStyleEPH       uint8 = 0x04
)

// Code-block style (SPcod/SPcoc) bits. spec.md's Non-goals exclude every
// feature here except the default (all bits clear); any set bit aborts
// the header parse with ErrUnsupported.
const (
	CodeBlockBypass               uint8 = 0x01
	CodeBlockReset                uint8 = 0x02
	CodeBlockTermination          uint8 = 0x04
	CodeBlockVerticalCausal       uint8 = 0x08
	CodeBlockPredictableTerm      uint8 = 0x10
	CodeBlockSegmentationSymbols  uint8 = 0x20
)

// Quantization style (Sqcd low 5 bits).
const (
	QuantizationNone            uint8 = 0x00
	QuantizationScalarDerived   uint8 = 0x01
	QuantizationScalarExpounded uint8 = 0x02
)

// ProgressionOrder selects the packet iteration order of spec.md §4.11.
type ProgressionOrder uint8

const (
	LRCP ProgressionOrder = iota
	RLCP
	RPCL
	PCRL
	CPRL
)

// WaveletKind distinguishes the two kernels of spec.md §4.13.
type WaveletKind uint8

const (
	Wavelet97 WaveletKind = 0 // 9-7 irreversible
	Wavelet53 WaveletKind = 1 // 5-3 reversible
)
