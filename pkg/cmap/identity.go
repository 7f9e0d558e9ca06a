package cmap

// Identity builds the Identity-H/Identity-V shortcut CMap of spec.md
// §4.14: a single 2-byte codespace range spanning 0..0xFFFF and a single
// CID range mapping every code to itself, letting the caller skip
// reading any embedded CMap resource for this extremely common case.
func Identity(name string, wmode int) *CMap {
	return &CMap{
		Name:  name,
		WMode: wmode,
		CodespaceRanges: []CodespaceRange{
			{NumBytes: 2, Low: 0, High: 0xFFFF},
		},
		CIDRanges: []CIDRange{
			{Low: 0, High: 0xFFFF, CIDStart: 0},
		},
	}
}

// IdentityH is the predefined horizontal-writing identity CMap.
func IdentityH() *CMap { return Identity("Identity-H", 0) }

// IdentityV is the predefined vertical-writing identity CMap.
func IdentityV() *CMap { return Identity("Identity-V", 1) }
