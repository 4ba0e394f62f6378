package codec

// bitWriter packs small fixed-width codes into a growable byte buffer.
// Bits are filled least-significant first within each byte.
type bitWriter struct {
	buf  []byte
	cur  uint32 // pending bits, low bits are oldest
	ncur uint   // number of pending bits in cur
}

func (w *bitWriter) Write(v uint32, width uint) {
	w.cur |= (v & ((1 << width) - 1)) << w.ncur
	w.ncur += width
	for w.ncur >= 8 {
		w.buf = append(w.buf, byte(w.cur))
		w.cur >>= 8
		w.ncur -= 8
	}
}

// Bytes flushes any partial byte (zero padded) and returns the packed stream.
func (w *bitWriter) Bytes() []byte {
	if w.ncur > 0 {
		w.buf = append(w.buf, byte(w.cur))
		w.cur = 0
		w.ncur = 0
	}
	return w.buf
}

// bitReader reads fixed-width codes back out of a packed stream.
type bitReader struct {
	buf []byte
	pos uint // absolute bit offset
}

// Read returns the next width bits, or ok=false when the stream is exhausted.
func (r *bitReader) Read(width uint) (uint32, bool) {
	if r.pos+width > uint(len(r.buf))*8 {
		return 0, false
	}
	var v uint32
	for i := uint(0); i < width; i++ {
		byteIdx := (r.pos + i) / 8
		bitIdx := (r.pos + i) % 8
		if r.buf[byteIdx]&(1<<bitIdx) != 0 {
			v |= 1 << i
		}
	}
	r.pos += width
	return v, true
}
