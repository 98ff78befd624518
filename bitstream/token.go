// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bitstream

import (
	"math"

	"github.com/go-bitcode/bitstream/bitstream/vbr"
)

// TokenKind tags the variant decoded by nextToken: one of the five
// top-level constructs spec.md §4.F dispatches on.
type TokenKind uint8

const (
	TokEndBlock TokenKind = iota
	TokEnterSubBlock
	TokDefineAbbrev
	TokUnabbrevRecord
	TokDefinedRecord
)

// Token is one decoded unit of the bitstream: the kind tag plus
// whichever payload that kind carries.
type Token struct {
	Kind   TokenKind
	Header BlockHeader // TokEnterSubBlock
	Def    AbbrevDef   // TokDefineAbbrev
	Record Record      // TokUnabbrevRecord, TokDefinedRecord
}

// nextToken decodes one top-level token from the stream, consulting
// f's active abbreviation table for user-defined abbreviation ids.
// This is the AbbreviationReader of spec.md §4.F.
func (r *Reader) nextToken(f *frame) (Token, error) {
	startPos := r.cursor.Position()
	id, err := r.cursor.ReadBits(f.abbrevIDWidth())
	if err != nil {
		return Token{}, err
	}
	abbrevID := uint32(id)

	if r.Trace != nil {
		defer func() { r.Trace(Event{Pos: startPos, BlockID: f.blockID(), AbbrevID: abbrevID}) }()
	}

	switch abbrevID {
	case abbrevEndBlock:
		if err := r.cursor.AlignTo(32); err != nil {
			return Token{}, err
		}
		return Token{Kind: TokEndBlock}, nil

	case abbrevEnterSubBlock:
		return r.decodeEnterSubBlock(f)

	case abbrevDefineAbbrev:
		def, err := r.decodeAbbrevDef(f)
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: TokDefineAbbrev, Def: def}, nil

	case abbrevUnabbrevRecord:
		rec, err := r.decodeUnabbrevRecord(f)
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: TokUnabbrevRecord, Record: rec}, nil

	default:
		def, ok := f.abbrevs.Get(abbrevID)
		if !ok {
			return Token{}, malformed(startPos, f.blockID(), "unknown abbreviation id %d", abbrevID)
		}
		rec, err := r.decodeDefinedRecord(f, abbrevID, def)
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: TokDefinedRecord, Record: rec}, nil
	}
}

func (r *Reader) decodeEnterSubBlock(f *frame) (Token, error) {
	pos := r.cursor.Position()

	blockID, err := vbr.ReadUint32(r.cursor, 8)
	if err != nil {
		return Token{}, err
	}

	widthV, err := r.cursor.ReadVBR(4)
	if err != nil {
		return Token{}, err
	}
	width, err := widthV.Uint64()
	if err != nil || width == 0 || width > 64 {
		return Token{}, malformed(pos, f.blockID(), "enter_subblock: invalid abbrev id width")
	}

	if err := r.cursor.AlignTo(32); err != nil {
		return Token{}, err
	}

	lengthWords, err := r.cursor.ReadBits(32)
	if err != nil {
		return Token{}, err
	}
	lengthBytes := lengthWords * 4
	if lengthBytes > math.MaxUint32 {
		return Token{}, malformed(pos, f.blockID(), "enter_subblock: length overflow")
	}

	return Token{Kind: TokEnterSubBlock, Header: BlockHeader{
		ID:            blockID,
		AbbrevIDWidth: uint8(width),
		LengthBytes:   uint32(lengthBytes),
	}}, nil
}

// decodeAbbrevDef implements the DEFINE_ABBREV operand grammar of
// spec.md §4.F.2.
func (r *Reader) decodeAbbrevDef(f *frame) (AbbrevDef, error) {
	pos := r.cursor.Position()
	nV, err := r.cursor.ReadVBR(5)
	if err != nil {
		return nil, err
	}
	n, err := nV.Uint64()
	if err != nil || n < 1 {
		return nil, malformed(pos, f.blockID(), "define_abbrev: operand count must be >= 1")
	}

	ops := make(AbbrevDef, 0, n)
	var count uint64
	for count < n {
		op, err := r.decodeAbbrevOperand(f, false)
		if err != nil {
			return nil, err
		}
		count++
		if count > n {
			return nil, malformed(pos, f.blockID(), "define_abbrev: operand count overflow")
		}
		if (op.Kind == OpBlob || op.Kind == OpArray) && count != n {
			return nil, malformed(pos, f.blockID(), "define_abbrev: %s must be the last operand", op.Kind)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// decodeAbbrevOperand reads one AbbrevOp. forArrayElem is true only
// while decoding the element type nested inside an OpArray, where
// further Array/Blob nesting is forbidden and no additional operand
// count is consumed (the array header already counted for one slot).
func (r *Reader) decodeAbbrevOperand(f *frame, forArrayElem bool) (AbbrevOp, error) {
	pos := r.cursor.Position()
	isLiteral, err := r.cursor.ReadBits(1)
	if err != nil {
		return AbbrevOp{}, err
	}
	if isLiteral == 1 {
		vV, err := r.cursor.ReadVBR(8)
		if err != nil {
			return AbbrevOp{}, err
		}
		v, err := vV.Uint64()
		if err != nil {
			return AbbrevOp{}, malformed(pos, f.blockID(), "define_abbrev: literal value too wide")
		}
		return literalOp(v), nil
	}

	enc, err := r.cursor.ReadBits(3)
	if err != nil {
		return AbbrevOp{}, err
	}
	switch enc {
	case 1: // Fixed
		w, err := vbr.ReadUint8(r.cursor, 5)
		if err != nil {
			return AbbrevOp{}, err
		}
		return fixedOp(w), nil
	case 2: // VBR
		w, err := vbr.ReadUint8(r.cursor, 5)
		if err != nil {
			return AbbrevOp{}, err
		}
		if w < 1 {
			return AbbrevOp{}, malformed(pos, f.blockID(), "define_abbrev: vbr width must be >= 1")
		}
		return vbrOp(w), nil
	case 3: // Array
		if forArrayElem {
			return AbbrevOp{}, malformed(pos, f.blockID(), "define_abbrev: array is not nestable inside array")
		}
		elem, err := r.decodeAbbrevOperand(f, true)
		if err != nil {
			return AbbrevOp{}, err
		}
		if elem.Kind == OpArray || elem.Kind == OpBlob {
			return AbbrevOp{}, malformed(pos, f.blockID(), "define_abbrev: array element may not be array or blob")
		}
		return arrayOp(elem), nil
	case 4: // Char6
		return char6Op(), nil
	case 5: // Blob
		if forArrayElem {
			return AbbrevOp{}, malformed(pos, f.blockID(), "define_abbrev: blob is not valid as an array element")
		}
		return blobOp(), nil
	default:
		return AbbrevOp{}, malformed(pos, f.blockID(), "define_abbrev: unknown operand encoding %d", enc)
	}
}

func (r *Reader) decodeUnabbrevRecord(f *frame) (Record, error) {
	pos := r.cursor.Position()
	code, err := vbr.ReadUint32(r.cursor, 6)
	if err != nil {
		return Record{}, err
	}
	mV, err := r.cursor.ReadVBR(6)
	if err != nil {
		return Record{}, err
	}
	m, err := mV.Uint64()
	if err != nil {
		return Record{}, malformed(pos, f.blockID(), "unabbrev_record: value count too wide")
	}

	values := make([]Value, 0, clampPrealloc(m))
	for i := uint64(0); i < m; i++ {
		vV, err := r.cursor.ReadVBR(6)
		if err != nil {
			return Record{}, err
		}
		v, err := vV.Uint64()
		if err != nil {
			return Record{}, malformed(pos, f.blockID(), "unabbrev_record: value %d too wide for 64 bits", i)
		}
		values = append(values, scalarValue(v))
	}
	return Record{AbbrevID: abbrevUnabbrevRecord, Code: code, Values: values}, nil
}

func (r *Reader) decodeDefinedRecord(f *frame, abbrevID uint32, def AbbrevDef) (Record, error) {
	pos := r.cursor.Position()
	codeVal, err := r.decodeOperandValue(f, def[0])
	if err != nil {
		return Record{}, err
	}
	if codeVal.Kind != KindScalar {
		return Record{}, malformed(pos, f.blockID(), "defined_record: code operand is not scalar")
	}
	if codeVal.Scalar > math.MaxUint32 {
		return Record{}, malformed(pos, f.blockID(), "defined_record: code %d overflows u32", codeVal.Scalar)
	}

	values := make([]Value, 0, len(def)-1)
	for _, op := range def[1:] {
		v, err := r.decodeOperandValue(f, op)
		if err != nil {
			return Record{}, err
		}
		values = append(values, v)
	}
	return Record{AbbrevID: abbrevID, Code: uint32(codeVal.Scalar), Values: values}, nil
}

func (r *Reader) decodeOperandValue(f *frame, op AbbrevOp) (Value, error) {
	pos := r.cursor.Position()
	switch op.Kind {
	case OpLiteral:
		return scalarValue(op.Value), nil

	case OpFixed:
		bits, err := r.cursor.ReadBits(uint(op.Width))
		if err != nil {
			return Value{}, err
		}
		return scalarValue(bits), nil

	case OpVBR:
		vV, err := r.cursor.ReadVBR(uint(op.Width))
		if err != nil {
			return Value{}, err
		}
		v, err := vV.Uint64()
		if err != nil {
			return Value{}, malformed(pos, f.blockID(), "defined_record: vbr value too wide for 64 bits")
		}
		return scalarValue(v), nil

	case OpChar6:
		idx, err := r.cursor.ReadBits(6)
		if err != nil {
			return Value{}, err
		}
		ch, err := decodeChar6(idx)
		if err != nil {
			return Value{}, malformed(pos, f.blockID(), "%v", err)
		}
		return scalarValue(uint64(ch)), nil

	case OpArray:
		kV, err := r.cursor.ReadVBR(6)
		if err != nil {
			return Value{}, err
		}
		k, err := kV.Uint64()
		if err != nil {
			return Value{}, malformed(pos, f.blockID(), "defined_record: array length too wide")
		}
		arr := make([]Value, 0, clampPrealloc(k))
		for i := uint64(0); i < k; i++ {
			v, err := r.decodeOperandValue(f, *op.Elem)
			if err != nil {
				return Value{}, err
			}
			arr = append(arr, v)
		}
		return arrayValue(arr), nil

	case OpBlob:
		kV, err := r.cursor.ReadVBR(6)
		if err != nil {
			return Value{}, err
		}
		k, err := kV.Uint64()
		if err != nil || k > math.MaxUint32 {
			return Value{}, malformed(pos, f.blockID(), "defined_record: blob length too wide")
		}
		if err := r.cursor.AlignTo(32); err != nil {
			return Value{}, err
		}
		raw, err := r.cursor.ReadBytes(uint32(k))
		if err != nil {
			return Value{}, err
		}
		b := make([]byte, len(raw))
		copy(b, raw)
		if err := r.cursor.AlignTo(32); err != nil {
			return Value{}, err
		}
		return blobValue(b), nil

	default:
		return Value{}, malformed(pos, f.blockID(), "defined_record: unknown operand kind")
	}
}

func clampPrealloc(n uint64) uint64 {
	if n > maxPrealloc {
		return maxPrealloc
	}
	return n
}
