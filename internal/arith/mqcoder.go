// Package arith implements the MQ/QM binary arithmetic decoder shared by
// the JBIG2 (ISO/IEC 14492 Annex E) and JPEG2000 (ISO/IEC 15444-1 Annex C)
// decoders. Only decoding is implemented; spec.md's Non-goals exclude
// encoders for any of the three formats this module targets.
package arith

// qeEntry is one row of the 47-entry probability-estimation table (JBIG2
// Table E.1 / JPEG2000 Table C.2). The table itself never mutates.
type qeEntry struct {
	qe     uint32
	nmps   uint8
	nlps   uint8
	switch_ bool
}

// qeTable is the fixed probability-estimation table. Index 46 is the
// terminal state (loops to itself under both outcomes), used with MPS 0
// as the initial state of the JPEG2000 uniform context.
var qeTable = [47]qeEntry{
	{0x5601, 1, 1, true}, {0x3401, 2, 6, false}, {0x1801, 3, 9, false},
	{0x0AC1, 4, 12, false}, {0x0521, 5, 29, false}, {0x0221, 38, 33, false},
	{0x5601, 7, 6, true}, {0x5401, 8, 14, false}, {0x4801, 9, 14, false},
	{0x3801, 10, 14, false}, {0x3001, 11, 17, false}, {0x2401, 12, 18, false},
	{0x1C01, 13, 20, false}, {0x1601, 29, 21, false}, {0x5601, 15, 14, true},
	{0x5401, 16, 14, false}, {0x5101, 17, 15, false}, {0x4801, 18, 16, false},
	{0x3801, 19, 17, false}, {0x3401, 20, 18, false}, {0x3001, 21, 19, false},
	{0x2801, 22, 19, false}, {0x2401, 23, 20, false}, {0x2201, 24, 21, false},
	{0x1C01, 25, 22, false}, {0x1801, 26, 23, false}, {0x1601, 27, 24, false},
	{0x1401, 28, 25, false}, {0x1201, 29, 26, false}, {0x1101, 30, 27, false},
	{0x0AC1, 31, 28, false}, {0x09C1, 32, 29, false}, {0x08A1, 33, 30, false},
	{0x0521, 34, 31, false}, {0x0441, 35, 32, false}, {0x02A1, 36, 33, false},
	{0x0221, 37, 34, false}, {0x0141, 38, 35, false}, {0x0111, 39, 36, false},
	{0x0085, 40, 37, false}, {0x0049, 41, 38, false}, {0x0025, 42, 39, false},
	{0x0015, 43, 40, false}, {0x0009, 44, 41, false}, {0x0005, 45, 42, false},
	{0x0001, 45, 43, false}, {0x5601, 46, 46, false},
}

// Context is a single adaptive binary probability state: an index into
// qeTable and the current more-probable-symbol bit. All contexts start
// zero-valued (index 0, mps 0) unless a decoder overrides specific
// entries, as spec.md §3.1 describes for the JBIG2 integer decoder.
type Context struct {
	Index uint8
	MPS   uint8
}

// Decoder is the MQ/QM arithmetic decoder state: the 32-bit C register
// (split conceptually into Chigh/Clow), the 16-bit range A, the byte
// counter CT, and the cursor into the input.
type Decoder struct {
	data []byte
	bp   int // index of the current byte
	c    uint32
	a    uint32
	ct   int
}

// NewDecoder initializes a decoder over data per the INITDEC procedure of
// spec.md §3.1: load the first byte, run BYTEIN once, shift C left by 7,
// set A = 0x8000, subtract 7 from CT.
func NewDecoder(data []byte) *Decoder {
	d := &Decoder{data: data}
	var b0 byte
	if len(data) > 0 {
		b0 = data[0]
	}
	d.c = uint32(b0) << 16
	d.byteIn()
	d.c <<= 7
	d.ct -= 7
	d.a = 0x8000
	return d
}

func (d *Decoder) curByte() byte {
	if d.bp < len(d.data) {
		return d.data[d.bp]
	}
	return 0xFF
}

func (d *Decoder) nextByte() byte {
	if d.bp+1 < len(d.data) {
		return d.data[d.bp+1]
	}
	return 0xFF
}

// byteIn implements the FF-byte-escape rule of spec.md §3.1: when the
// current byte is 0xFF and the following byte exceeds 0x8F, the decoder
// has run off the end of genuine coded data and the standard's infinite
// 0xFF 0xAC padding takes over (CT is set to 8 without ever advancing bp
// past the marker byte).
func (d *Decoder) byteIn() {
	if d.curByte() == 0xFF {
		if d.nextByte() > 0x8F {
			d.c += 0xFF00
			d.ct = 8
		} else {
			d.bp++
			d.c += uint32(d.curByte()) << 9
			d.ct = 7
		}
	} else {
		d.bp++
		d.c += uint32(d.curByte()) << 8
		d.ct = 8
	}
}

// DecodeBit decodes one binary decision against cx, mutating cx in place
// (index transition to NMPS/NLPS, possible MPS swap on a SWITCH row) and
// returning the decoded bit. Past-end reads are well-defined: byteIn's
// escape rule makes the decoder behave as though reading an infinite run
// of 0xFF 0xAC padding, so DecodeBit never panics or errors; the calling
// decoder must use its own length/count state to know when to stop.
func (d *Decoder) DecodeBit(cx *Context) int {
	qe := &qeTable[cx.Index]
	d.a -= qe.qe

	var bit int
	chigh := d.c >> 16
	if chigh < qe.qe {
		// LPS or MPS exchange, per the exchange rule of spec.md §3.1.
		if d.a < qe.qe {
			bit = int(cx.MPS)
			cx.Index = qe.nmps
		} else {
			bit = int(1 - cx.MPS)
			if qe.switch_ {
				cx.MPS = 1 - cx.MPS
			}
			cx.Index = qe.nlps
		}
		d.a = qe.qe
	} else {
		d.c -= qe.qe << 16
		if d.a&0x8000 != 0 {
			return int(cx.MPS)
		}
		if d.a < qe.qe {
			bit = int(1 - cx.MPS)
			if qe.switch_ {
				cx.MPS = 1 - cx.MPS
			}
			cx.Index = qe.nlps
		} else {
			bit = int(cx.MPS)
			cx.Index = qe.nmps
		}
	}

	for {
		if d.ct == 0 {
			d.byteIn()
		}
		d.a <<= 1
		d.c <<= 1
		d.ct--
		if d.a&0x8000 != 0 {
			break
		}
	}
	return bit
}
