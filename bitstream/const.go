// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bitstream

// Reserved abbreviation ids (spec.md §3, §6). User-defined
// abbreviations start at 4.
const (
	abbrevEndBlock       uint32 = 0
	abbrevEnterSubBlock  uint32 = 1
	abbrevDefineAbbrev   uint32 = 2
	abbrevUnabbrevRecord uint32 = 3
	firstUserAbbrevID    uint32 = 4
)

// BlockInfoBlockID is the reserved block id carrying cross-block
// metadata (spec.md §6).
const BlockInfoBlockID uint32 = 0

// Reserved BLOCKINFO record codes (spec.md §6).
const (
	blockInfoSetBID        uint64 = 1
	blockInfoBlockName     uint64 = 2
	blockInfoSetRecordName uint64 = 3
)

// topLevelAbbrevIDWidth is the fixed width of the abbreviation id read
// at the synthetic top-level frame (spec.md §6).
const topLevelAbbrevIDWidth = 2

// maxPrealloc bounds how eagerly a count-prefixed slice is
// preallocated before being grown incrementally, avoiding a memory
// blowup from a single bogus length field. Grounded on
// wasm/read.go's getInitialCap.
const maxPrealloc = 10 * 1024
