// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bitstream

import (
	"io"
	"log"
	"os"
)

// PrintDebugInfo reports whether verbose internal tracing of block
// entry/exit to stderr is enabled. SetDebugMode updates it together
// with the logger; assigning it directly does not switch the logger.
// It is independent of the Reader.Warn and Reader.Trace hooks: this is
// a process-wide debug switch, those are per-parse consumer-facing
// sinks.
var PrintDebugInfo = false

var logger *log.Logger

func init() {
	logger = log.New(io.Discard, "", log.Lshortfile)
}

// SetDebugMode enables or disables the internal debug logger.
func SetDebugMode(v bool) {
	PrintDebugInfo = v
	w := io.Writer(io.Discard)
	if v {
		w = os.Stderr
	}
	logger = log.New(w, "bitstream: ", log.Lshortfile)
}
