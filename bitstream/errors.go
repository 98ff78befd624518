// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bitstream

import "fmt"

// Malformed reports a violation of the bitstream wire-format contract:
// an unknown abbreviation id, a block-length mismatch, an invalid
// abbreviation definition, and so on. It is always fatal.
type Malformed struct {
	Pos     Position
	BlockID *uint32 // set when the error occurred while parsing a known block
	Message string
}

func (e *Malformed) Error() string {
	if e.BlockID != nil {
		return fmt.Sprintf("bitstream: malformed input at %s (block %d): %s", e.Pos, *e.BlockID, e.Message)
	}
	return fmt.Sprintf("bitstream: malformed input at %s: %s", e.Pos, e.Message)
}

func malformed(pos Position, blockID *uint32, format string, args ...interface{}) *Malformed {
	return &Malformed{Pos: pos, BlockID: blockID, Message: fmt.Sprintf(format, args...)}
}

// OutOfBounds reports an attempt to advance the cursor past the end of
// the input buffer. Always fatal.
type OutOfBounds struct {
	Pos    Position
	Needed uint // number of bits the failed operation tried to consume
}

func (e *OutOfBounds) Error() string {
	return fmt.Sprintf("bitstream: out of bounds at %s: need %d more bit(s)", e.Pos, e.Needed)
}

// Warning describes a recoverable protocol anomaly: a stray token at
// the stream's top level, or a BLOCKINFO record that could not be
// applied. Warnings carry the same context shape as fatal errors but
// never enter the returned error chain — they are only ever delivered
// to a Reader's Warn hook.
type Warning struct {
	Pos     Position
	BlockID *uint32
	Message string
}

func (w Warning) String() string {
	if w.BlockID != nil {
		return fmt.Sprintf("bitstream: warning at %s (block %d): %s", w.Pos, *w.BlockID, w.Message)
	}
	return fmt.Sprintf("bitstream: warning at %s: %s", w.Pos, w.Message)
}

// warn delivers w to the sink configured on r, if any.
func (r *Reader) warn(pos Position, blockID *uint32, format string, args ...interface{}) {
	if r.Warn == nil {
		return
	}
	r.Warn(Warning{Pos: pos, BlockID: blockID, Message: fmt.Sprintf(format, args...)})
}
