// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bitstream

import (
	"errors"
	"unicode/utf8"
)

var (
	errNotAByteString = errors.New("value is not a sequence of byte-valued scalars")
	errInvalidUTF8    = errors.New("not valid UTF-8")
)

func utf8Valid(b []byte) bool { return utf8.Valid(b) }
