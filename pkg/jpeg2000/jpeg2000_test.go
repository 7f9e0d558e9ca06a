package jpeg2000

import "testing"

// identityCodestream is a minimal hand-built raw codestream: an 8x8,
// single-component, single-tile, zero-decomposition, 5/3-reversible,
// unquantized image whose sole packet is empty (presence bit 0). With
// no decompositions there is no wavelet synthesis, with one component
// there is no MCT, and an empty packet means every coefficient in the
// lone code-block is implicitly zero — so the only transform that
// still runs is the per-component level shift, which must turn the
// all-zero plane into a constant 128 (2^(precision-1) at precision 8).
var identityCodestream = []byte{
	0xFF, 0x4F, // SOC

	0xFF, 0x51, // SIZ
	0x00, 0x29, // Lsiz
	0x00, 0x00, // Rsiz
	0x00, 0x00, 0x00, 0x08, // Xsiz
	0x00, 0x00, 0x00, 0x08, // Ysiz
	0x00, 0x00, 0x00, 0x00, // XOsiz
	0x00, 0x00, 0x00, 0x00, // YOsiz
	0x00, 0x00, 0x00, 0x08, // XTsiz
	0x00, 0x00, 0x00, 0x08, // YTsiz
	0x00, 0x00, 0x00, 0x00, // XTOsiz
	0x00, 0x00, 0x00, 0x00, // YTOsiz
	0x00, 0x01, // Csiz
	0x07, 0x01, 0x01, // Ssiz, XRsiz, YRsiz (8-bit unsigned, no subsampling)

	0xFF, 0x52, // COD
	0x00, 0x0C, // Lcod
	0x00,       // Scod: no SOP, no EPH, no custom precincts
	0x00,       // progression order: LRCP
	0x00, 0x01, // numLayers
	0x00,       // MCT off
	0x00,       // numDecompositions
	0x02, 0x02, // code-block width/height exponents
	0x00, // code-block style
	0x01, // wavelet: 5/3 reversible

	0xFF, 0x5C, // QCD
	0x00, 0x04, // Lqcd
	0x00, // Sqcd: no quantization, 0 guard bits
	0x40, // step-size byte (exponent 8, unused by the no-quant path)

	0xFF, 0x90, // SOT
	0x00, 0x0A, // Lsot
	0x00, 0x00, // Isot: tile 0
	0x00, 0x00, 0x00, 0x0F, // Psot: 15 bytes from this marker through the body
	0x00, // TPsot
	0x01, // TNsot

	0xFF, 0x93, // SOD

	0x00, // packet body: presence bit 0, empty packet

	0xFF, 0xD9, // EOC
}

func TestDecodeIdentityConstantSample(t *testing.T) {
	channels, err := Decode(identityCodestream, Settings{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(channels) != 1 {
		t.Fatalf("got %d channels, want 1", len(channels))
	}
	ch := channels[0]
	if ch.BitDepth != 8 {
		t.Fatalf("got bit depth %d, want 8", ch.BitDepth)
	}
	if ch.IsAlpha {
		t.Fatalf("got IsAlpha true, want false")
	}
	if len(ch.Samples) != 64 {
		t.Fatalf("got %d samples, want 64", len(ch.Samples))
	}
	for i, s := range ch.Samples {
		if s != 128 {
			t.Fatalf("sample %d = %v, want 128", i, s)
		}
	}
}

func TestDecodeRejectsOversizeImage(t *testing.T) {
	bad := append([]byte(nil), identityCodestream...)
	// Xsiz lives right after SOC(2)+SIZ marker(2)+Lsiz(2)+Rsiz(2) = byte 8.
	bad[8] = 0xFF
	bad[9] = 0xFF
	bad[10] = 0xFF
	bad[11] = 0xFF
	if _, err := Decode(bad, Settings{}); err == nil {
		t.Fatalf("expected an error for an oversize image")
	}
}
