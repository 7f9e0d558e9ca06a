package cmap

import "strconv"

// parser drives the operator-dispatch loop of spec.md §4.14 over a
// Tokenizer, accumulating ranges and metadata into a CMap.
type parser struct {
	tok    *Tokenizer
	cm     *CMap
	h3, h2, h1 Token // token history: h3 oldest, h1 most recent
}

func newParser(data []byte) *parser {
	return &parser{tok: NewTokenizer(data), cm: &CMap{}}
}

func (p *parser) advance() (Token, error) {
	t, err := p.tok.Next()
	if err != nil {
		return t, err
	}
	p.h3, p.h2, p.h1 = p.h2, p.h1, t
	return t, nil
}

// run executes the top-level dispatch loop and returns the built CMap
// plus the name passed to `usecmap`, if any.
func (p *parser) run() (*CMap, string, error) {
	var useCMapName string
	for {
		t, err := p.advance()
		if err != nil {
			return nil, "", err
		}
		if t.Kind == TokEOF {
			break
		}
		if t.Kind != TokOperator {
			continue
		}
		switch t.Str {
		case "begincodespacerange":
			if err := p.parseCodespaceRanges(); err != nil {
				return nil, "", err
			}
		case "begincidrange":
			if err := p.parseRanges(&p.cm.CIDRanges, "endcidrange"); err != nil {
				return nil, "", err
			}
		case "begincidchar":
			if err := p.parseChars(&p.cm.CIDRanges, "endcidchar"); err != nil {
				return nil, "", err
			}
		case "beginnotdefrange":
			if err := p.parseRanges(&p.cm.NotdefRanges, "endnotdefrange"); err != nil {
				return nil, "", err
			}
		case "beginnotdefchar":
			if err := p.parseChars(&p.cm.NotdefRanges, "endnotdefchar"); err != nil {
				return nil, "", err
			}
		case "beginbfchar":
			if err := p.parseBFChars(); err != nil {
				return nil, "", err
			}
		case "beginbfrange":
			if err := p.parseBFRanges(); err != nil {
				return nil, "", err
			}
		case "usecmap":
			if p.h2.Kind == TokName {
				useCMapName = p.h2.Str
			}
		case "def":
			p.tryAssignMetadata()
		default:
			// Unknown operators are ignored, per spec.md §4.14.
		}
	}
	return p.cm, useCMapName, nil
}

// tryAssignMetadata recognizes the "/Key value def" pattern for the
// handful of metadata keys spec.md §4.14 names; any other key/value
// pair preceding "def" is silently ignored.
func (p *parser) tryAssignMetadata() {
	if p.h3.Kind != TokName {
		return
	}
	key, val := p.h3.Str, p.h2
	switch key {
	case "CMapName":
		if val.Kind == TokName {
			p.cm.Name = val.Str
		} else if val.Kind == TokString {
			p.cm.Name = val.Str
		}
	case "WMode":
		if val.Kind == TokInteger {
			p.cm.WMode = int(val.Int)
		}
	case "Registry":
		if val.Kind == TokString {
			p.cm.Registry = val.Str
		} else if val.Kind == TokName {
			p.cm.Registry = val.Str
		}
	case "Ordering":
		if val.Kind == TokString {
			p.cm.Ordering = val.Str
		} else if val.Kind == TokName {
			p.cm.Ordering = val.Str
		}
	case "Supplement":
		if val.Kind == TokInteger {
			p.cm.Supplement = strconv.FormatInt(val.Int, 10)
		}
	}
}

func bytesToUint32(b []byte) uint32 {
	var v uint32
	for _, x := range b {
		v = v<<8 | uint32(x)
	}
	return v
}

// bytesToUTF16Units expands raw destination bytes into UTF-16 code
// units per spec.md §4.14: 1-2 bytes form a single code unit; longer
// destinations are grouped two bytes at a time (a trailing odd byte
// becomes its own low-byte-only unit).
func bytesToUTF16Units(b []byte) []uint16 {
	if len(b) <= 2 {
		return []uint16{uint16(bytesToUint32(b))}
	}
	var units []uint16
	i := 0
	for i+1 < len(b) {
		units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
		i += 2
	}
	if i < len(b) {
		units = append(units, uint16(b[i]))
	}
	return units
}

func (p *parser) parseCodespaceRanges() error {
	for {
		t, err := p.advance()
		if err != nil {
			return err
		}
		if t.Kind == TokEOF || (t.Kind == TokOperator && t.Str == "endcodespacerange") {
			return nil
		}
		if t.Kind != TokHex {
			continue
		}
		low := t
		high, err := p.advance()
		if err != nil {
			return err
		}
		if high.Kind != TokHex {
			continue
		}
		p.cm.CodespaceRanges = append(p.cm.CodespaceRanges, CodespaceRange{
			NumBytes: len(low.Hex),
			Low:      bytesToUint32(low.Hex),
			High:     bytesToUint32(high.Hex),
		})
	}
}

// parseRanges consumes <low> <high> cid triplets until endOp, used by
// both begincidrange and beginnotdefrange (spec.md §4.14).
func (p *parser) parseRanges(dst *[]CIDRange, endOp string) error {
	for {
		t, err := p.advance()
		if err != nil {
			return err
		}
		if t.Kind == TokEOF || (t.Kind == TokOperator && t.Str == endOp) {
			return nil
		}
		if t.Kind != TokHex {
			continue
		}
		low := t
		high, err := p.advance()
		if err != nil {
			return err
		}
		if high.Kind != TokHex {
			continue
		}
		cidTok, err := p.advance()
		if err != nil {
			return err
		}
		if cidTok.Kind != TokInteger {
			continue
		}
		*dst = append(*dst, CIDRange{
			Low: bytesToUint32(low.Hex), High: bytesToUint32(high.Hex), CIDStart: uint32(cidTok.Int),
		})
	}
}

// parseChars consumes <src> cid pairs until endOp, used by both
// begincidchar and beginnotdefchar.
func (p *parser) parseChars(dst *[]CIDRange, endOp string) error {
	for {
		t, err := p.advance()
		if err != nil {
			return err
		}
		if t.Kind == TokEOF || (t.Kind == TokOperator && t.Str == endOp) {
			return nil
		}
		if t.Kind != TokHex {
			continue
		}
		code := bytesToUint32(t.Hex)
		cidTok, err := p.advance()
		if err != nil {
			return err
		}
		if cidTok.Kind != TokInteger {
			continue
		}
		*dst = append(*dst, CIDRange{Low: code, High: code, CIDStart: uint32(cidTok.Int)})
	}
}

func (p *parser) parseBFChars() error {
	for {
		t, err := p.advance()
		if err != nil {
			return err
		}
		if t.Kind == TokEOF || (t.Kind == TokOperator && t.Str == "endbfchar") {
			return nil
		}
		if t.Kind != TokHex {
			continue
		}
		src := bytesToUint32(t.Hex)
		dst, err := p.advance()
		if err != nil {
			return err
		}
		if dst.Kind != TokHex {
			continue
		}
		p.cm.BFEntries = append(p.cm.BFEntries, bfEntry{
			Low: src, High: src, DestUnits: bytesToUTF16Units(dst.Hex),
		})
	}
}

func (p *parser) parseBFRanges() error {
	for {
		t, err := p.advance()
		if err != nil {
			return err
		}
		if t.Kind == TokEOF || (t.Kind == TokOperator && t.Str == "endbfrange") {
			return nil
		}
		if t.Kind != TokHex {
			continue
		}
		low := bytesToUint32(t.Hex)
		highTok, err := p.advance()
		if err != nil {
			return err
		}
		if highTok.Kind != TokHex {
			continue
		}
		high := bytesToUint32(highTok.Hex)
		dstTok, err := p.advance()
		if err != nil {
			return err
		}
		switch dstTok.Kind {
		case TokHex:
			p.cm.BFEntries = append(p.cm.BFEntries, bfEntry{
				Low: low, High: high, DestUnits: bytesToUTF16Units(dstTok.Hex),
			})
		case TokArrayOpen:
			var arr [][]uint16
			for {
				el, err := p.advance()
				if err != nil {
					return err
				}
				if el.Kind == TokEOF || el.Kind == TokArrayClose {
					break
				}
				if el.Kind != TokHex {
					continue
				}
				arr = append(arr, bytesToUTF16Units(el.Hex))
			}
			p.cm.BFEntries = append(p.cm.BFEntries, bfEntry{Low: low, High: high, Array: arr})
		default:
			// Malformed triplet; skip silently per the "never crash,
			// ignore unknown constructs" policy of spec.md §4.14.
		}
	}
}
