// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bitstream

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	KindScalar ValueKind = iota
	KindArray
	KindBlob
)

// Value is a single decoded record field: a tagged variant per
// spec.md §3. Only Scalar is permitted for the record code position;
// at most one Array or Blob may appear among a record's values, and it
// must be last.
type Value struct {
	Kind   ValueKind
	Scalar uint64
	Array  []Value
	Blob   []byte
}

func scalarValue(v uint64) Value { return Value{Kind: KindScalar, Scalar: v} }
func arrayValue(vs []Value) Value { return Value{Kind: KindArray, Array: vs} }
func blobValue(b []byte) Value    { return Value{Kind: KindBlob, Blob: b} }

// Record is a decoded record, either self-describing (UNABBREV_RECORD,
// AbbrevID == abbrevUnabbrevRecord) or produced through a user-defined
// abbreviation.
type Record struct {
	AbbrevID uint32
	Code     uint32
	Values   []Value
}

// Block is a parsed, length-delimited region of the stream: a block id,
// its abbreviation-id width, its length in bytes, the position its body
// begins at, and the records and nested blocks found within it.
type Block struct {
	ID            uint32
	AbbrevIDWidth uint8
	LengthBytes   uint32
	Position      Position // immediately after the block's length word
	Records       []Record
	SubBlocks     []Block
}

// Handle returns the BlockHandle a caller can hand to (*Reader).FromBlock
// and (*Reader).ScanAbbrevs to re-scan this block's abbreviation
// definitions without re-walking its full record/sub-block tree.
func (b Block) Handle() BlockHandle {
	return BlockHandle{ID: b.ID, AbbrevIDWidth: b.AbbrevIDWidth, Position: b.Position}
}

// BlockInfo carries the cross-block metadata BLOCKINFO attaches to a
// block id: an optional display name, names for individual record
// codes, and a seed abbreviation table applied to every future block
// of that id.
type BlockInfo struct {
	Name        *string
	RecordNames map[uint64]string
	Abbrevs     AbbrevTable
}

// Document is the root of the parsed tree: the verbatim magic number,
// the accumulated BLOCKINFO metadata keyed by block id, and the
// top-level blocks encountered in stream order.
type Document struct {
	Magic      uint32
	BlockInfos map[uint32]*BlockInfo
	TopBlocks  []Block
}

// BlockName returns the display name BLOCKINFO assigned to id, if any.
func (d *Document) BlockName(id uint32) (string, bool) {
	info, ok := d.BlockInfos[id]
	if !ok || info.Name == nil {
		return "", false
	}
	return *info.Name, true
}

// RecordName returns the display name BLOCKINFO assigned to the given
// record code within block id, if any.
func (d *Document) RecordName(id uint32, code uint64) (string, bool) {
	info, ok := d.BlockInfos[id]
	if !ok {
		return "", false
	}
	name, ok := info.RecordNames[code]
	return name, ok
}
