package cmap

import (
	"golang.org/x/exp/slices"
	"golang.org/x/text/encoding/unicode"
)

// maxUseCMapDepth bounds usecmap chaining per spec.md §3.4.
const maxUseCMapDepth = 16

// CodespaceRange is one valid input byte-length/value window, per
// spec.md §4.14's begincodespacerange entries.
type CodespaceRange struct {
	NumBytes int
	Low      uint32
	High     uint32
}

// CIDRange maps a contiguous code window to a contiguous CID window
// starting at CIDStart, per spec.md §4.14's begincidrange entries.
// NotdefRanges reuse this shape with CIDStart as a fixed (non-offset)
// fallback CID.
type CIDRange struct {
	Low, High uint32
	CIDStart  uint32
}

// bfEntry is one beginbfchar/beginbfrange entry. For a single-code
// bfchar, Low == High. DestUnits holds the destination as UTF-16 code
// units; Array holds one destination per code when the PDF source used
// the `[...]` array form (index 0 corresponds to Low).
type bfEntry struct {
	Low, High uint32
	DestUnits []uint16
	Array     [][]uint16
}

// CMap is a fully parsed, immediately-usable character-code mapping
// table, per spec.md §3.4/§4.14.
type CMap struct {
	Name       string
	Registry   string
	Ordering   string
	Supplement string
	WMode      int

	CodespaceRanges []CodespaceRange
	CIDRanges       []CIDRange
	NotdefRanges    []CIDRange
	BFEntries       []bfEntry

	Base *CMap
}

var utf16BEDecoder = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()

// Parse builds a CMap from PostScript-like CMap source data, resolving
// any `usecmap` chain through getCMap (looked up by name), per spec.md
// §6.3's entry point.
func Parse(data []byte, getCMap func(name string) ([]byte, bool)) (*CMap, error) {
	return parseDepth(data, getCMap, 0)
}

func parseDepth(data []byte, getCMap func(name string) ([]byte, bool), depth int) (*CMap, error) {
	if depth >= maxUseCMapDepth {
		return nil, ErrDepth
	}
	p := newParser(data)
	cm, useCMapName, err := p.run()
	if err != nil {
		return nil, err
	}
	if useCMapName != "" && getCMap != nil {
		if baseData, ok := getCMap(useCMapName); ok {
			base, err := parseDepth(baseData, getCMap, depth+1)
			if err == nil {
				cm.Base = base
			} else if err == ErrDepth {
				return nil, err
			}
		}
	}
	finalizeCMap(cm)
	return cm, nil
}

func finalizeCMap(cm *CMap) {
	slices.SortFunc(cm.CIDRanges, func(a, b CIDRange) int { return int(a.Low) - int(b.Low) })
	slices.SortFunc(cm.NotdefRanges, func(a, b CIDRange) int { return int(a.Low) - int(b.Low) })
	slices.SortFunc(cm.BFEntries, func(a, b bfEntry) int { return int(a.Low) - int(b.Low) })
}

// LookupCID implements spec.md §4.14's lookup_cid: a code is in-codespace
// iff some codespace range of the matching byte length contains it
// (recursing into the base CMap only when this level defines no
// codespace ranges of its own), then cid_ranges, then notdef_ranges,
// then (as a documented leniency) single-codepoint bf_entries, then the
// base CMap, defaulting to 0.
func (cm *CMap) LookupCID(code uint32, byteLen int) (uint32, bool) {
	if !cm.inCodespace(code, byteLen) {
		return 0, false
	}
	return cm.lookupCIDAfterCodespace(code), true
}

func (cm *CMap) inCodespace(code uint32, byteLen int) bool {
	if len(cm.CodespaceRanges) == 0 {
		if cm.Base != nil {
			return cm.Base.inCodespace(code, byteLen)
		}
		return false
	}
	for _, r := range cm.CodespaceRanges {
		if r.NumBytes == byteLen && code >= r.Low && code <= r.High {
			return true
		}
	}
	return false
}

func (cm *CMap) lookupCIDAfterCodespace(code uint32) uint32 {
	if i, ok := slices.BinarySearchFunc(cm.CIDRanges, code, func(r CIDRange, target uint32) int {
		if target < r.Low {
			return 1
		}
		if target > r.High {
			return -1
		}
		return 0
	}); ok {
		return cm.CIDRanges[i].CIDStart + (code - cm.CIDRanges[i].Low)
	}
	if i, ok := slices.BinarySearchFunc(cm.NotdefRanges, code, func(r CIDRange, target uint32) int {
		if target < r.Low {
			return 1
		}
		if target > r.High {
			return -1
		}
		return 0
	}); ok {
		return cm.NotdefRanges[i].CIDStart
	}
	if s, ok := cm.lookupUnicodeLocal(code); ok {
		if runes := []rune(s); len(runes) == 1 && runes[0] <= 0xFFFF {
			return uint32(runes[0])
		}
	}
	if cm.Base != nil {
		return cm.Base.lookupCIDAfterCodespace(code)
	}
	return 0
}

// LookupUnicode implements spec.md §4.14's lookup_unicode: binary-search
// bf_entries, decode the destination incremented by (code-start),
// recursing into the base CMap on miss.
func (cm *CMap) LookupUnicode(code uint32) (string, bool) {
	if s, ok := cm.lookupUnicodeLocal(code); ok {
		return s, true
	}
	if cm.Base != nil {
		return cm.Base.LookupUnicode(code)
	}
	return "", false
}

func (cm *CMap) lookupUnicodeLocal(code uint32) (string, bool) {
	i, ok := slices.BinarySearchFunc(cm.BFEntries, code, func(e bfEntry, target uint32) int {
		if target < e.Low {
			return 1
		}
		if target > e.High {
			return -1
		}
		return 0
	})
	if !ok {
		return "", false
	}
	e := cm.BFEntries[i]
	offset := int(code - e.Low)
	if e.Array != nil {
		if offset < 0 || offset >= len(e.Array) {
			return "", false
		}
		return decodeUTF16Units(e.Array[offset]), true
	}
	units := append([]uint16(nil), e.DestUnits...)
	if len(units) > 0 {
		units[len(units)-1] = uint16(int(units[len(units)-1]) + offset)
	}
	return decodeUTF16Units(units), true
}

// decodeUTF16Units decodes big-endian UTF-16 code units (with surrogate
// pairs already adjacent, as hex destinations encode them) into a Go
// string via the shared UTF-16BE decoder.
func decodeUTF16Units(units []uint16) string {
	raw := make([]byte, 0, len(units)*2)
	for _, u := range units {
		raw = append(raw, byte(u>>8), byte(u))
	}
	out, err := utf16BEDecoder.Bytes(raw)
	if err != nil {
		return ""
	}
	return string(out)
}

// Metadata returns the key/value metadata fields of spec.md §4.14.
func (cm *CMap) Metadata() (name, registry, ordering, supplement string, wmode int) {
	return cm.Name, cm.Registry, cm.Ordering, cm.Supplement, cm.WMode
}
