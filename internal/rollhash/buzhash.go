package rollhash

import "math/bits"

// BuzHash is a cyclic rolling hash. Its state is the XOR of
// rotate_left(table[c_i], w-1-i) across the current window; the update
// rule lets that be maintained in O(1) per shift without recomputing the
// whole window.
type BuzHash struct {
	window int
	h      uint32
}

// NewBuzHash builds a BuzHash with the given window width.
func NewBuzHash(windowSize int) *BuzHash {
	if windowSize <= 0 {
		windowSize = 20
	}
	return &BuzHash{window: windowSize}
}

func (b *BuzHash) WindowSize() int { return b.window }

func (b *BuzHash) Reset() {
	b.h = 0
}

// Roll applies h' = rotl(h, 1) XOR rotl(table[out], w) XOR table[in].
func (b *BuzHash) Roll(outByte, inByte byte) {
	b.h = bits.RotateLeft32(b.h, 1) ^
		bits.RotateLeft32(buzhashTable[outByte], b.window) ^
		buzhashTable[inByte]
}

func (b *BuzHash) Sum() uint32 {
	return b.h
}
