package codec

// Consecutive sub-fingerprints of stationary audio differ in very few bits, so
// the XOR deltas between them cluster on a handful of low-bit patterns. Those
// patterns get a 3-bit code; everything else is written through the escape
// code with the full 32-bit delta stored in the exception list.
//
// Code assignment (fixed for the life of the format):
//
//	0 -> 0x0 (no change)    4 -> 0x3 (bits 0+1)
//	1 -> 0x1 (bit 0)        5 -> 0x6 (bits 1+2)
//	2 -> 0x2 (bit 1)        6 -> 0x5 (bits 0+2)
//	3 -> 0x4 (bit 2)        7 -> escape
const (
	codeWidth  = 3
	escapeCode = 7
)

// codeToDelta maps a normal 3-bit code back to its delta pattern.
var codeToDelta = [escapeCode]uint32{0x0, 0x1, 0x2, 0x4, 0x3, 0x6, 0x5}

// deltaToCode is the inverse table, built once at init.
var deltaToCode = func() map[uint32]uint32 {
	m := make(map[uint32]uint32, len(codeToDelta))
	for code, delta := range codeToDelta {
		m[delta] = uint32(code)
	}
	return m
}()
