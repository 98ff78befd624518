// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bitstream decodes the LLVM bitcode wire format: a bit-packed,
// self-describing container of nested blocks holding records whose
// physical layout is dictated by abbreviation definitions introduced
// earlier in the same stream. Semantic interpretation of decoded
// record codes is left to the caller; this package only produces the
// parsed tree.
package bitstream

import "math"

// Event is the payload delivered to a Reader's optional Trace hook
// once per decoded token: the "optional trace emission to a
// caller-supplied sink" named in spec.md §6.
type Event struct {
	Pos      Position
	BlockID  *uint32 // nil at the stream's top level
	AbbrevID uint32
}

// WarnFunc receives non-fatal protocol anomalies: stray tokens at the
// stream's top level, and BLOCKINFO records that could not be applied.
type WarnFunc func(Warning)

// TraceFunc receives one Event per token decoded.
type TraceFunc func(Event)

// Reader drives a single parse of a byte buffer into a Document. A
// Reader is not safe for concurrent use; it owns one cursor and one
// ParserStateStack for the duration of one parse.
type Reader struct {
	cursor *BitCursor
	stack  *parserStack
	info   *BlockInfoStore

	// Warn, if non-nil, receives every non-fatal anomaly (spec.md §7).
	Warn WarnFunc
	// Trace, if non-nil, receives one Event per decoded token.
	Trace TraceFunc
}

// FromBytes constructs a Reader over buf, ready to parse from the
// start of the stream. buf is borrowed for the Reader's lifetime and
// must not be mutated while in use.
func FromBytes(buf []byte) *Reader {
	return &Reader{
		cursor: NewBitCursor(buf),
		stack:  newParserStack(),
		info:   newBlockInfoStore(),
	}
}

// Read is the top-level driver: it reads the 32-bit magic number, then
// repeatedly decodes top-level tokens until the buffer is exhausted,
// descending into each top-level block. Any other token seen at the
// top level is a non-fatal stray and is warned about, not fatal
// (spec.md §9's resolved open question).
func (r *Reader) Read() (*Document, error) {
	magic, err := r.cursor.ReadBits(32)
	if err != nil {
		return nil, err
	}

	doc := &Document{Magic: uint32(magic)}
	top := r.stack.top()

	for !r.cursor.AtEnd() {
		tok, err := r.nextToken(top)
		if err != nil {
			return nil, err
		}

		if tok.Kind != TokEnterSubBlock {
			r.warn(r.cursor.Position(), nil, "stray %s at stream top level", tokenKindName(tok.Kind))
			continue
		}

		block, err := r.readBlock(tok.Header)
		if err != nil {
			return nil, err
		}
		doc.TopBlocks = append(doc.TopBlocks, block)
	}

	doc.BlockInfos = r.info.snapshot()
	return doc, nil
}

func tokenKindName(k TokenKind) string {
	switch k {
	case TokEndBlock:
		return "END_BLOCK"
	case TokDefineAbbrev:
		return "DEFINE_ABBREV"
	case TokUnabbrevRecord:
		return "UNABBREV_RECORD"
	case TokDefinedRecord:
		return "defined record"
	default:
		return "token"
	}
}

// enterBlock seeds a new frame from any BLOCKINFO metadata registered
// for hdr.ID, pushes it, and returns that frame, whose BlockHandle
// records where the block's body begins (spec.md §4.G's enter()).
func (r *Reader) enterBlock(hdr BlockHeader) (*frame, error) {
	seed := AbbrevTable{}
	if info, ok := r.info.Get(hdr.ID); ok {
		seed = info.Abbrevs.Clone()
	}
	handle := &BlockHandle{ID: hdr.ID, AbbrevIDWidth: hdr.AbbrevIDWidth, Position: r.cursor.Position()}
	f := &frame{handle: handle, abbrevs: seed}
	r.stack.push(f)
	logger.Printf("entering block %d at %s", hdr.ID, handle.Position)
	return f, nil
}

// exitBlock pops the current frame and verifies the block consumed
// exactly hdr.LengthBytes bytes (spec.md §4.G's exit()).
func (r *Reader) exitBlock(hdr BlockHeader) error {
	f := r.stack.pop()
	want := f.handle.Position.Offset + uint64(hdr.LengthBytes)
	if got := r.cursor.Position().Offset; got != want {
		return malformed(r.cursor.Position(), &hdr.ID, "block length mismatch: want end offset %d, got %d", want, got)
	}
	logger.Printf("exiting block %d at %s", hdr.ID, r.cursor.Position())
	return nil
}

// readBlock fully parses one block (general case or BLOCKINFO) and
// returns the assembled tree node.
func (r *Reader) readBlock(hdr BlockHeader) (Block, error) {
	f, err := r.enterBlock(hdr)
	if err != nil {
		return Block{}, err
	}

	block := Block{ID: hdr.ID, AbbrevIDWidth: hdr.AbbrevIDWidth, LengthBytes: hdr.LengthBytes, Position: f.handle.Position}
	if hdr.ID == BlockInfoBlockID {
		err = r.readBlockInfoBody(f)
	} else {
		err = r.readBlockBody(f, &block)
	}
	if err != nil {
		return Block{}, err
	}

	if err := r.exitBlock(hdr); err != nil {
		return Block{}, err
	}
	return block, nil
}

// readBlockBody implements the general BlockReader driving loop of
// spec.md §4.G: decode tokens until END_BLOCK, recursing into nested
// ENTER_SUBBLOCK tokens, appending DEFINE_ABBREV to the active frame,
// and appending records to block.
func (r *Reader) readBlockBody(f *frame, block *Block) error {
	for {
		tok, err := r.nextToken(f)
		if err != nil {
			return err
		}
		switch tok.Kind {
		case TokEndBlock:
			return nil
		case TokEnterSubBlock:
			sub, err := r.readBlock(tok.Header)
			if err != nil {
				return err
			}
			block.SubBlocks = append(block.SubBlocks, sub)
		case TokDefineAbbrev:
			f.abbrevs.Add(tok.Def)
		case TokUnabbrevRecord, TokDefinedRecord:
			block.Records = append(block.Records, tok.Record)
		}
	}
}

// readBlockInfoBody implements BlockInfoReader (spec.md §4.G): it
// tracks the record-described target_block_id and routes SET_BID,
// BLOCK_NAME and SET_RECORD_NAME into the BlockInfoStore, treating
// sub-blocks and unrecognized record codes as warnings.
func (r *Reader) readBlockInfoBody(f *frame) error {
	var target *uint32

	for {
		tok, err := r.nextToken(f)
		if err != nil {
			return err
		}
		switch tok.Kind {
		case TokEndBlock:
			return nil

		case TokEnterSubBlock:
			r.warn(r.cursor.Position(), &f.handle.ID, "sub-block %d inside BLOCKINFO", tok.Header.ID)
			if err := r.cursor.Advance(uint64(tok.Header.LengthBytes) * 8); err != nil {
				return err
			}

		case TokDefineAbbrev:
			if target == nil {
				r.warn(r.cursor.Position(), &f.handle.ID, "DEFINE_ABBREV in BLOCKINFO before SET_BID")
				continue
			}
			r.info.getOrCreate(*target).Abbrevs.Add(tok.Def)

		case TokDefinedRecord:
			r.warn(r.cursor.Position(), &f.handle.ID, "defined record inside BLOCKINFO")

		case TokUnabbrevRecord:
			r.handleBlockInfoRecord(f, tok.Record, &target)
		}
	}
}

func (r *Reader) handleBlockInfoRecord(f *frame, rec Record, target **uint32) {
	pos := r.cursor.Position()
	switch uint64(rec.Code) {
	case blockInfoSetBID:
		if len(rec.Values) < 1 || rec.Values[0].Kind != KindScalar {
			r.warn(pos, &f.handle.ID, "SET_BID missing a scalar value")
			return
		}
		if rec.Values[0].Scalar > math.MaxUint32 {
			r.warn(pos, &f.handle.ID, "SET_BID value %d overflows a block id", rec.Values[0].Scalar)
			return
		}
		id := uint32(rec.Values[0].Scalar)
		*target = &id

	case blockInfoBlockName:
		if *target == nil {
			r.warn(pos, &f.handle.ID, "BLOCK_NAME before SET_BID")
			return
		}
		name, err := scalarsToUTF8(rec.Values)
		if err != nil {
			r.warn(pos, &f.handle.ID, "BLOCK_NAME: %v", err)
			return
		}
		r.info.getOrCreate(**target).Name = &name

	case blockInfoSetRecordName:
		if *target == nil {
			r.warn(pos, &f.handle.ID, "SET_RECORD_NAME before SET_BID")
			return
		}
		if len(rec.Values) < 1 || rec.Values[0].Kind != KindScalar {
			r.warn(pos, &f.handle.ID, "SET_RECORD_NAME missing a scalar code")
			return
		}
		name, err := scalarsToUTF8(rec.Values[1:])
		if err != nil {
			r.warn(pos, &f.handle.ID, "SET_RECORD_NAME: %v", err)
			return
		}
		r.info.getOrCreate(**target).RecordNames[rec.Values[0].Scalar] = name

	default:
		r.warn(pos, &f.handle.ID, "unknown BLOCKINFO record code %d", rec.Code)
	}
}

// scalarsToUTF8 builds a string from a sequence of byte-valued scalar
// values, as BLOCK_NAME and SET_RECORD_NAME encode their text.
func scalarsToUTF8(values []Value) (string, error) {
	b := make([]byte, 0, len(values))
	for _, v := range values {
		if v.Kind != KindScalar || v.Scalar > 0xFF {
			return "", errNotAByteString
		}
		b = append(b, byte(v.Scalar))
	}
	if !utf8Valid(b) {
		return "", errInvalidUTF8
	}
	return string(b), nil
}
