package jpeg2000

import (
	"github.com/novvoo/go-pdfcore/internal/bitio"
	"github.com/novvoo/go-pdfcore/pkg/jpeg2000/internal/codestream"
	"github.com/novvoo/go-pdfcore/pkg/jpeg2000/internal/tagtree"
)

// codeBlockTrack carries one code-block's packet-header state across
// however many layers reference it (spec.md §4.11): whether it has ever
// been included, the running Lblock value, the decoded zero-bitplane
// count, and the concatenation of every layer's contributed bytes.
type codeBlockTrack struct {
	x0, y0, x1, y1     int
	included           bool
	zeroBitPlanesKnown bool
	zeroBitPlanes      int
	lblock             int
	totalPasses        int
	coded              []byte
}

// bandTrack is one (resolution, sub-band)'s code-block grid plus the two
// persistent tag trees (inclusion, zero-bitplane-count) packet headers
// read against across the whole tile decode.
type bandTrack struct {
	kind          codestream.SubbandKind
	gridW, gridH  int
	blocks        []codeBlockTrack
	inclusionTree *tagtree.Tree
	zeroBPTree    *tagtree.Tree
}

func newBandTrack(kind codestream.SubbandKind, subW, subH, cbW, cbH int) *bandTrack {
	gw, gh := codeBlockGrid(subW, subH, cbW, cbH)
	bt := &bandTrack{kind: kind, gridW: gw, gridH: gh, inclusionTree: tagtree.New(gw, gh), zeroBPTree: tagtree.New(gw, gh)}
	bt.blocks = make([]codeBlockTrack, gw*gh)
	for by := 0; by < gh; by++ {
		for bx := 0; bx < gw; bx++ {
			x0, y0, x1, y1 := codeBlockBounds(subW, subH, cbW, cbH, bx, by)
			bt.blocks[by*gw+bx] = codeBlockTrack{x0: x0, y0: y0, x1: x1, y1: y1, lblock: 3}
		}
	}
	return bt
}

// includedBlock names one code-block that gained bytes in the packet
// just decoded, in the order its bytes appear in the packet body.
type includedBlock struct {
	band  *bandTrack
	index int
	added int
}

// decodePacketHeader reads one packet header per spec.md §4.11 against
// the persistent per-code-block state in bands, returning the
// code-blocks that received new bytes this packet (in body order).
func decodePacketHeader(pr *bitio.PacketReader, layer int, bands []*bandTrack) ([]includedBlock, error) {
	present, err := pr.ReadBit()
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}
	var out []includedBlock
	for _, bt := range bands {
		for i := range bt.blocks {
			cb := &bt.blocks[i]
			x, y := i%bt.gridW, i/bt.gridW
			var isIncluded bool
			if !cb.included {
				val, known, err := bt.inclusionTree.Read(pr, x, y, uint32(layer+1))
				if err != nil {
					return nil, err
				}
				isIncluded = known && int(val) <= layer
				if isIncluded {
					cb.included = true
				}
			} else {
				bit, err := pr.ReadBit()
				if err != nil {
					return nil, err
				}
				isIncluded = bit == 1
			}
			if !isIncluded {
				continue
			}
			if !cb.zeroBitPlanesKnown {
				zbp, _, err := bt.zeroBPTree.Read(pr, x, y, tagtree.Infinity)
				if err != nil {
					return nil, err
				}
				cb.zeroBitPlanes = int(zbp)
				cb.zeroBitPlanesKnown = true
			}
			passes, err := decodeCodingPasses(pr)
			if err != nil {
				return nil, err
			}
			length, err := decodeBlockLength(pr, cb, passes)
			if err != nil {
				return nil, err
			}
			cb.totalPasses += passes
			out = append(out, includedBlock{band: bt, index: i, added: length})
		}
	}
	return out, nil
}

// decodeCodingPasses reads the variable-length coding-pass count of
// Table B.4, grounded on mrjoshuak's internal/tcd/t2.go decodeNumPasses.
func decodeCodingPasses(pr *bitio.PacketReader) (int, error) {
	bit, err := pr.ReadBit()
	if err != nil {
		return 0, err
	}
	if bit == 0 {
		return 1, nil
	}
	bit, err = pr.ReadBit()
	if err != nil {
		return 0, err
	}
	if bit == 0 {
		return 2, nil
	}
	val, err := pr.ReadBits(2)
	if err != nil {
		return 0, err
	}
	if val < 3 {
		return int(val) + 3, nil
	}
	val, err = pr.ReadBits(5)
	if err != nil {
		return 0, err
	}
	if val < 31 {
		return int(val) + 6, nil
	}
	val, err = pr.ReadBits(7)
	if err != nil {
		return 0, err
	}
	return int(val) + 37, nil
}

// decodeBlockLength applies spec.md §4.11's Lblock algorithm directly
// (an explicit deviation from mrjoshuak's t2.go, which encodes length
// with a simplified 3-bit-prefix scheme rather than the standard's
// unary Lblock update — see DESIGN.md): read a unary run of one-bits
// terminated by a zero, add the run length to the code-block's running
// Lblock, then read Lblock + floor(log2(addedPasses)) bits as the byte
// length contributed this layer.
func decodeBlockLength(pr *bitio.PacketReader, cb *codeBlockTrack, addedPasses int) (int, error) {
	for {
		bit, err := pr.ReadBit()
		if err != nil {
			return 0, err
		}
		if bit == 0 {
			break
		}
		cb.lblock++
	}
	bits := cb.lblock + log2Floor(addedPasses)
	if bits <= 0 {
		return 0, nil
	}
	v, err := pr.ReadBits(bits)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

func log2Floor(n int) int {
	l := 0
	for n > 1 {
		n >>= 1
		l++
	}
	return l
}
