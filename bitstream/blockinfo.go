// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bitstream

// BlockInfoStore is the per-Document map from block id to the
// metadata any BLOCKINFO block in the stream has attached to it
// (spec.md §4.D). It is written solely by the BLOCKINFO driving loop
// and read whenever a block is entered, to seed that block's
// AbbrevTable and to resolve names for tracing.
type BlockInfoStore struct {
	byID map[uint32]*BlockInfo
}

func newBlockInfoStore() *BlockInfoStore {
	return &BlockInfoStore{byID: make(map[uint32]*BlockInfo)}
}

// Get returns the BlockInfo registered for id, if any.
func (s *BlockInfoStore) Get(id uint32) (*BlockInfo, bool) {
	info, ok := s.byID[id]
	return info, ok
}

// getOrCreate returns the BlockInfo for id, creating an empty one on
// first use.
func (s *BlockInfoStore) getOrCreate(id uint32) *BlockInfo {
	info, ok := s.byID[id]
	if !ok {
		info = &BlockInfo{RecordNames: make(map[uint64]string)}
		s.byID[id] = info
	}
	return info
}

// snapshot copies the store into a plain map suitable for embedding in
// a finished Document, so the Document holds no reference back into
// mutable parser state.
func (s *BlockInfoStore) snapshot() map[uint32]*BlockInfo {
	out := make(map[uint32]*BlockInfo, len(s.byID))
	for id, info := range s.byID {
		names := make(map[uint64]string, len(info.RecordNames))
		for k, v := range info.RecordNames {
			names[k] = v
		}
		out[id] = &BlockInfo{
			Name:        info.Name,
			RecordNames: names,
			Abbrevs:     info.Abbrevs.Clone(),
		}
	}
	return out
}
