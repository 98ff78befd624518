// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bitstream

import (
	"github.com/go-bitcode/bitstream/bitstream/vbr"
)

// BitCursor is a bit-level read cursor over an immutable byte buffer.
// It never copies or mutates the underlying buffer and never moves
// backwards except via an explicit Seek, used only by the
// scan-for-definitions mode.
type BitCursor struct {
	buf      []byte
	pos      Position
	totalBit uint64
}

// NewBitCursor wraps buf for bit-level reading starting at offset 0.
func NewBitCursor(buf []byte) *BitCursor {
	return &BitCursor{buf: buf, totalBit: uint64(len(buf)) * 8}
}

// Position returns the cursor's current canonical position.
func (c *BitCursor) Position() Position { return c.pos }

// Len returns the size of the underlying buffer in bytes.
func (c *BitCursor) Len() int { return len(c.buf) }

// AtEnd reports whether the cursor has consumed the entire buffer.
func (c *BitCursor) AtEnd() bool { return c.pos.Total() == c.totalBit }

// Seek repositions the cursor at an arbitrary (already-canonical)
// position. Used only by the scan-for-definitions entry point
// (FromBlock), which resumes parsing mid-stream at a block's recorded
// enter position.
func (c *BitCursor) Seek(p Position) { c.pos = p }

// ReadBits returns the n-bit unsigned value at the current position,
// little-endian within each byte and little-endian across bytes: bit 0
// of the first touched byte is the least-significant bit of the
// result, with successively higher bits coming from successively
// higher bit positions. n must be in [0, 64]; n == 0 is a no-op
// returning 0, to support AbbrevOp.Fixed(0).
func (c *BitCursor) ReadBits(n uint) (uint64, error) {
	if n == 0 {
		return 0, nil
	}
	if n > 64 {
		return 0, malformed(c.pos, nil, "read_bits: width %d exceeds 64", n)
	}
	if c.pos.Total()+uint64(n) > c.totalBit {
		return 0, &OutOfBounds{Pos: c.pos, Needed: n}
	}

	var (
		result   uint64
		consumed uint
		offset   = c.pos.Offset
		bitOff   = c.pos.BitOffset
	)
	for consumed < n {
		avail := uint(8 - bitOff)
		take := n - consumed
		if take > avail {
			take = avail
		}
		chunk := (c.buf[offset] >> bitOff) & byte((1<<take)-1)
		result |= uint64(chunk) << consumed
		consumed += take
		bitOff += uint8(take)
		if bitOff == 8 {
			bitOff = 0
			offset++
		}
	}
	c.pos = Position{Offset: offset, BitOffset: bitOff}
	return result, nil
}

// ReadVBR reads a VBR-encoded value with chunk width n, per
// bitstream/vbr.
func (c *BitCursor) ReadVBR(n uint) (vbr.Value, error) {
	return vbr.Read(c, n)
}

// AlignTo advances the cursor so that its total bit position is a
// multiple of bits, a power of two (typically 32). It is a no-op if
// already aligned, and always advances strictly less than bits when it
// does move.
func (c *BitCursor) AlignTo(bits uint64) error {
	total := c.pos.Total()
	rem := total % bits
	if rem == 0 {
		return nil
	}
	advance := bits - rem
	if total+advance > c.totalBit {
		return &OutOfBounds{Pos: c.pos, Needed: uint(advance)}
	}
	c.pos = fromTotalBits(total + advance)
	return nil
}

// ReadBytes requires byte alignment (BitOffset == 0) and returns a
// view onto the next n raw bytes, advancing the cursor by n*8 bits.
// The returned slice aliases the underlying buffer and must not be
// retained past the buffer's lifetime if the caller mutates it
// elsewhere (the decoder itself never does).
func (c *BitCursor) ReadBytes(n uint32) ([]byte, error) {
	if c.pos.BitOffset != 0 {
		return nil, malformed(c.pos, nil, "read_bytes: cursor is not byte-aligned")
	}
	need := uint64(n)
	if c.pos.Offset+need > uint64(len(c.buf)) {
		return nil, &OutOfBounds{Pos: c.pos, Needed: uint(need) * 8}
	}
	b := c.buf[c.pos.Offset : c.pos.Offset+need]
	c.pos.Offset += need
	return b, nil
}

// Advance skips n bits without decoding them, used when the
// scan-for-definitions mode skips a sub-block's body wholesale using
// its known length rather than recursing into it.
func (c *BitCursor) Advance(n uint64) error {
	if c.pos.Total()+n > c.totalBit {
		return &OutOfBounds{Pos: c.pos, Needed: uint(n)}
	}
	c.pos = fromTotalBits(c.pos.Total() + n)
	return nil
}
