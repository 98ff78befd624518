// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bitstream

// FromBlock returns a new Reader positioned at handle.Position, ready
// for ScanAbbrevs. It reuses r's own buffer and BlockInfoStore (the one
// accumulated by a prior Read(), in the common case), so a caller never
// builds either by hand: r stays untouched and usable afterwards. This
// is the "scan-for-definitions" entry point of spec.md §4.G: it lets a
// caller recover the effective abbreviation table in scope at an
// arbitrary point in the stream without retaining the full
// record/sub-block tree that a normal Read would build.
func (r *Reader) FromBlock(handle BlockHandle) *Reader {
	cursor := NewBitCursor(r.cursor.buf)
	cursor.Seek(handle.Position)
	return &Reader{
		cursor: cursor,
		stack:  newParserStack(),
		info:   r.info,
	}
}

// ScanAbbrevs reads the block referenced by handle (as it was
// constructed, e.g. by FromBlock) applying only DEFINE_ABBREV to the
// resulting table: nested sub-blocks are skipped wholesale using their
// declared length rather than recursed into, and records are decoded
// (to stay position-correct) but discarded.
func (r *Reader) ScanAbbrevs(handle BlockHandle) (AbbrevTable, error) {
	seed := AbbrevTable{}
	if info, ok := r.info.Get(handle.ID); ok {
		seed = info.Abbrevs.Clone()
	}
	h := handle
	f := &frame{handle: &h, abbrevs: seed}

	for {
		tok, err := r.nextToken(f)
		if err != nil {
			return AbbrevTable{}, err
		}
		switch tok.Kind {
		case TokEndBlock:
			return f.abbrevs, nil
		case TokEnterSubBlock:
			if err := r.cursor.Advance(uint64(tok.Header.LengthBytes) * 8); err != nil {
				return AbbrevTable{}, err
			}
		case TokDefineAbbrev:
			f.abbrevs.Add(tok.Def)
		case TokUnabbrevRecord, TokDefinedRecord:
			// discarded: scan mode only wants the resulting AbbrevTable.
		}
	}
}
