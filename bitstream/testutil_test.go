// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bitstream

// bitWriter is a test-only helper that packs bits in the same
// little-endian-within-and-across-bytes order BitCursor reads, used to
// build literal wire-format fixtures for the concrete scenarios in
// spec.md §8. Production code never emits bitcode (writing/emitting is
// an explicit non-goal), so this stays test-local.
type bitWriter struct {
	buf    []byte
	bitLen uint // bits used in the last byte of buf, 0 means buf is byte-aligned
}

func (w *bitWriter) writeBits(v uint64, n uint) {
	for n > 0 {
		if w.bitLen == 0 {
			w.buf = append(w.buf, 0)
		}
		avail := 8 - w.bitLen
		take := n
		if take > avail {
			take = avail
		}
		mask := byte((uint64(1) << take) - 1)
		w.buf[len(w.buf)-1] |= byte(v&uint64(mask)) << w.bitLen
		v >>= take
		n -= take
		w.bitLen = (w.bitLen + take) % 8
	}
}

func (w *bitWriter) writeVBR(v uint64, n uint) {
	payloadBits := n - 1
	mask := (uint64(1) << payloadBits) - 1
	for {
		chunk := v & mask
		v >>= payloadBits
		if v != 0 {
			chunk |= uint64(1) << payloadBits
		}
		w.writeBits(chunk, n)
		if v == 0 {
			break
		}
	}
}

func (w *bitWriter) alignTo32() {
	total := uint64(len(w.buf))*8 - uint64((8-w.bitLen)%8)
	rem := total % 32
	if rem == 0 && w.bitLen == 0 {
		return
	}
	pad := uint(32 - rem%32)
	if rem == 0 {
		pad = 0
	}
	w.writeBits(0, pad)
	// ensure byte-aligned
	if w.bitLen != 0 {
		w.writeBits(0, 8-w.bitLen)
	}
}

// padToByte pads with zero bits up to the next byte boundary, without
// requiring a full 32-bit alignment. Used by tests that end the stream
// right after an intentionally non-word-aligned top-level token.
func (w *bitWriter) padToByte() {
	if w.bitLen != 0 {
		w.writeBits(0, 8-w.bitLen)
	}
}

func (w *bitWriter) writeBytes(b []byte) {
	if w.bitLen != 0 {
		panic("writeBytes requires byte alignment")
	}
	w.buf = append(w.buf, b...)
}

func (w *bitWriter) bytes() []byte { return w.buf }

// writeAbbrevID writes a top-level (or in-block) abbreviation id
// literal with the given fixed width.
func (w *bitWriter) writeAbbrevID(id uint64, width uint) { w.writeBits(id, width) }

func (w *bitWriter) writeEndBlock(width uint) {
	w.writeAbbrevID(uint64(abbrevEndBlock), width)
	w.alignTo32()
}

func (w *bitWriter) writeEnterSubBlock(width uint, blockID uint64, newWidth uint64, lengthWords uint32) {
	w.writeAbbrevID(uint64(abbrevEnterSubBlock), width)
	w.writeVBR(blockID, 8)
	w.writeVBR(newWidth, 4)
	w.alignTo32()
	w.writeBits(uint64(lengthWords), 32)
}

// beginSubBlock writes an ENTER_SUBBLOCK header with a zero-valued
// length-word placeholder and returns its byte offset, to be patched by
// endSubBlock once the block's body has been written. This keeps every
// fixture's declared block length correct by construction instead of
// hand-computed.
func (w *bitWriter) beginSubBlock(width uint, blockID uint64, newWidth uint64) int {
	w.writeAbbrevID(uint64(abbrevEnterSubBlock), width)
	w.writeVBR(blockID, 8)
	w.writeVBR(newWidth, 4)
	w.alignTo32()
	patchAt := len(w.buf)
	w.writeBits(0, 32)
	return patchAt
}

// endSubBlock writes the END_BLOCK token for the block opened at
// patchAt and backpatches its length word.
func (w *bitWriter) endSubBlock(width uint, patchAt int) {
	w.writeAbbrevID(uint64(abbrevEndBlock), width)
	w.alignTo32()
	lengthBytes := len(w.buf) - (patchAt + 4)
	words := uint32(lengthBytes / 4)
	w.buf[patchAt] = byte(words)
	w.buf[patchAt+1] = byte(words >> 8)
	w.buf[patchAt+2] = byte(words >> 16)
	w.buf[patchAt+3] = byte(words >> 24)
}

func (w *bitWriter) writeUnabbrevRecord(width uint, code uint64, values []uint64) {
	w.writeAbbrevID(uint64(abbrevUnabbrevRecord), width)
	w.writeVBR(code, 6)
	w.writeVBR(uint64(len(values)), 6)
	for _, v := range values {
		w.writeVBR(v, 6)
	}
}

// writeDefineAbbrevFixedArrayChar6 writes DEFINE_ABBREV [Fixed(w), Array(Char6)].
func (w *bitWriter) writeDefineAbbrevFixedArrayChar6(width uint, fixedWidth uint64) {
	w.writeAbbrevID(uint64(abbrevDefineAbbrev), width)
	w.writeVBR(2, 5) // n = 2 operands
	// operand 1: Fixed(fixedWidth)
	w.writeBits(0, 1) // not literal
	w.writeBits(1, 3) // enc=1 Fixed
	w.writeVBR(fixedWidth, 5)
	// operand 2: Array(Char6)
	w.writeBits(0, 1) // not literal
	w.writeBits(3, 3) // enc=3 Array
	w.writeBits(0, 1) // element not literal
	w.writeBits(4, 3) // enc=4 Char6
}

// writeDefineAbbrevVBRBlob writes DEFINE_ABBREV [VBR(w), Blob].
func (w *bitWriter) writeDefineAbbrevVBRBlob(width uint, vbrWidth uint64) {
	w.writeAbbrevID(uint64(abbrevDefineAbbrev), width)
	w.writeVBR(2, 5) // n = 2 operands
	// operand 1: VBR(vbrWidth)
	w.writeBits(0, 1)
	w.writeBits(2, 3) // enc=2 VBR
	w.writeVBR(vbrWidth, 5)
	// operand 2: Blob
	w.writeBits(0, 1)
	w.writeBits(5, 3) // enc=5 Blob
}
