// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bitstream

// BlockHandle is the lightweight "current block" reference a parser
// frame carries: just enough to decode further tokens (its
// abbreviation-id width) and to verify exit alignment (its enter
// position), as distinct from the Block tree node that accumulates
// Records and SubBlocks as parsing proceeds (spec.md §4.E, §9).
type BlockHandle struct {
	ID            uint32
	AbbrevIDWidth uint8
	Position      Position // position immediately after the block's length word
}

// BlockHeader is the transient payload of an ENTER_SUBBLOCK token,
// before a frame or a Block tree node exists for it.
type BlockHeader struct {
	ID            uint32
	AbbrevIDWidth uint8
	LengthBytes   uint32
}

// frame is one level of the ParserStateStack: the block currently
// being parsed (nil at the synthetic top-level frame), that block's
// active abbreviation table, and the position at which it was
// entered.
type frame struct {
	handle  *BlockHandle // nil at the top-level frame
	abbrevs AbbrevTable
}

// abbrevIDWidth returns the width used to read the next abbreviation
// id in this frame: the containing block's width, or the fixed
// top-level width at the synthetic root frame.
func (f *frame) abbrevIDWidth() uint {
	if f.handle == nil {
		return topLevelAbbrevIDWidth
	}
	return uint(f.handle.AbbrevIDWidth)
}

// blockID returns the id of the block this frame belongs to, or nil at
// the top-level frame, for use as error/warning context.
func (f *frame) blockID() *uint32 {
	if f.handle == nil {
		return nil
	}
	id := f.handle.ID
	return &id
}

// parserStack mirrors block nesting: depth >= 1 always, with element 0
// the synthetic top-level frame (current block == nil, empty
// abbreviation table).
type parserStack struct {
	frames []*frame
}

func newParserStack() *parserStack {
	return &parserStack{frames: []*frame{{}}}
}

func (s *parserStack) top() *frame {
	return s.frames[len(s.frames)-1]
}

func (s *parserStack) push(f *frame) {
	s.frames = append(s.frames, f)
}

// pop removes and returns the top frame. It must never be called on
// the synthetic root frame; enter/exit pairing guarantees this.
func (s *parserStack) pop() *frame {
	n := len(s.frames)
	f := s.frames[n-1]
	s.frames = s.frames[:n-1]
	return f
}
