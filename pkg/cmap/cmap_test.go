package cmap

import "testing"

func mustParse(t *testing.T, src string, getCMap func(string) ([]byte, bool)) *CMap {
	t.Helper()
	cm, err := Parse([]byte(src), getCMap)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return cm
}

func TestCIDRangeLookup(t *testing.T) {
	src := `
1 begincodespacerange
<0000> <FFFF>
endcodespacerange
1 begincidrange
<0000> <00FF> 0
endcidrange
`
	cm := mustParse(t, src, nil)
	cid, ok := cm.LookupCID(0x0041, 2)
	if !ok || cid != 0x0041 {
		t.Fatalf("LookupCID(0x41,2) = (%d,%v), want (0x41,true)", cid, ok)
	}
}

func TestBFLigature(t *testing.T) {
	src := "1 beginbfchar\n<005F> <00660066>\nendbfchar\n"
	cm := mustParse(t, src, nil)
	s, ok := cm.LookupUnicode(0x5F)
	if !ok || s != "ff" {
		t.Fatalf("LookupUnicode(0x5F) = (%q,%v), want (\"ff\",true)", s, ok)
	}
}

func TestBFSurrogate(t *testing.T) {
	src := "1 beginbfchar\n<3A51> <D840DC3E>\nendbfchar\n"
	cm := mustParse(t, src, nil)
	s, ok := cm.LookupUnicode(0x3A51)
	if !ok {
		t.Fatalf("LookupUnicode(0x3A51) miss")
	}
	runes := []rune(s)
	if len(runes) != 1 || runes[0] != 0x2003E {
		t.Fatalf("LookupUnicode(0x3A51) = %U, want U+2003E", runes)
	}
}

func TestUseCMapChaining(t *testing.T) {
	base := `
1 begincodespacerange
<0000> <FFFF>
endcodespacerange
1 begincidrange
<0000> <00FF> 0
endcidrange
`
	child := `
/BaseCMap usecmap
1 begincodespacerange
<0000> <FFFF>
endcodespacerange
1 begincidrange
<0100> <01FF> 256
endcidrange
`
	getCMap := func(name string) ([]byte, bool) {
		if name == "BaseCMap" {
			return []byte(base), true
		}
		return nil, false
	}
	cm := mustParse(t, child, getCMap)

	cid, ok := cm.LookupCID(0x01FF, 2)
	if !ok || cid != 511 {
		t.Fatalf("LookupCID(0x01FF,2) = (%d,%v), want (511,true)", cid, ok)
	}
	cid, ok = cm.LookupCID(0x00FF, 2)
	if !ok || cid != 0xFF {
		t.Fatalf("LookupCID(0x00FF,2) = (%d,%v), want (0xFF,true)", cid, ok)
	}
}

func TestCodespaceMonotonicity(t *testing.T) {
	src := `
1 begincodespacerange
<0000> <00FF>
endcodespacerange
1 begincidrange
<0000> <00FF> 0
endcidrange
`
	cm := mustParse(t, src, nil)
	if _, ok := cm.LookupCID(0x0041, 1); ok {
		t.Fatalf("expected byte-length mismatch to miss codespace")
	}
	if _, ok := cm.LookupCID(0x1234, 2); ok {
		t.Fatalf("expected out-of-range code to miss codespace")
	}
}

func TestIdentityShortcut(t *testing.T) {
	cm := IdentityH()
	for _, c := range []uint32{0, 1, 0x1234, 0xFFFF} {
		cid, ok := cm.LookupCID(c, 2)
		if !ok || cid != c {
			t.Fatalf("Identity-H.LookupCID(%#x,2) = (%#x,%v), want (%#x,true)", c, cid, ok, c)
		}
	}
	if _, ok := cm.LookupCID(0, 1); ok {
		t.Fatalf("Identity-H.LookupCID(_,1) should miss")
	}
}

func TestParseIsDeterministic(t *testing.T) {
	src := `
1 begincodespacerange
<0000> <FFFF>
endcodespacerange
1 begincidrange
<0000> <00FF> 10
endcidrange
`
	a := mustParse(t, src, nil)
	b := mustParse(t, src, nil)
	for _, code := range []uint32{0, 0x0080, 0x00FF} {
		ca, oka := a.LookupCID(code, 2)
		cb, okb := b.LookupCID(code, 2)
		if ca != cb || oka != okb {
			t.Fatalf("non-deterministic parse for code %#x: (%d,%v) vs (%d,%v)", code, ca, oka, cb, okb)
		}
	}
}

func TestMetadataScan(t *testing.T) {
	src := `
/CMapName /My-Custom-CMap def
/WMode 1 def
`
	cm := mustParse(t, src, nil)
	name, _, _, _, wmode := cm.Metadata()
	if name != "My-Custom-CMap" || wmode != 1 {
		t.Fatalf("Metadata() = (%q,wmode=%d), want (\"My-Custom-CMap\",1)", name, wmode)
	}
}

func TestUnknownOperatorsIgnored(t *testing.T) {
	src := `
/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
1 begincodespacerange
<0000> <FFFF>
endcodespacerange
1 begincidrange
<0000> <00FF> 0
endcidrange
endcmap
CMapName currentdict /CMap defineresource pop
end
end
`
	cm := mustParse(t, src, nil)
	if cid, ok := cm.LookupCID(0x10, 2); !ok || cid != 0x10 {
		t.Fatalf("LookupCID(0x10,2) = (%d,%v), want (0x10,true)", cid, ok)
	}
}
