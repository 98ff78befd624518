// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vbr decodes LLVM bitstream's variable-bit-rate integers:
// https://llvm.org/docs/BitCodeFormat.html#variable-width-integer
//
// A VBR(n) value is a sequence of n-bit chunks. The low (n-1) bits of
// each chunk hold a payload; the high bit is a continuation flag. Chunks
// are emitted low-order-payload first, mirroring wasm/leb128's byte-at-a-
// time shift-and-OR accumulation but generalized to an arbitrary chunk
// width and promoted to arbitrary precision on overflow.
package vbr

import (
	"fmt"
	"math"
	"math/big"
)

// BitSource supplies fixed-width bit groups, as implemented by
// bitstream.BitCursor.
type BitSource interface {
	ReadBits(n uint) (uint64, error)
}

// Value is the result of decoding one VBR integer. It fits in Low unless
// Big is non-nil, in which case the true value exceeded 64 bits.
type Value struct {
	Low uint64
	Big *big.Int
}

// Uint64 narrows v to a uint64, failing if the decoded value needed more
// than 64 bits.
func (v Value) Uint64() (uint64, error) {
	if v.Big != nil {
		return 0, fmt.Errorf("vbr: value %s does not fit in 64 bits", v.Big.String())
	}
	return v.Low, nil
}

// Read decodes one VBR value with chunk width n from src. The format
// requires n >= 2; this decoder accepts n >= 1 for robustness against
// malformed streams (a width-1 chunk carries no payload bits and simply
// reads continuation bits until one is clear).
func Read(src BitSource, n uint) (Value, error) {
	if n < 1 {
		return Value{}, fmt.Errorf("vbr: chunk width must be >= 1, got %d", n)
	}

	payloadBits := n - 1
	mask := uint64(0)
	if payloadBits > 0 {
		mask = (uint64(1) << payloadBits) - 1
	}

	var (
		shift uint
		lo    uint64
		acc   *big.Int
	)
	for {
		chunk, err := src.ReadBits(n)
		if err != nil {
			return Value{}, err
		}
		payload := chunk & mask
		cont := (chunk >> payloadBits) & 1

		switch {
		case acc != nil:
			acc.Or(acc, new(big.Int).Lsh(new(big.Int).SetUint64(payload), shift))
		case payload == 0:
			// contributes no bits
		case shift < 64 && payload>>(64-shift) == 0:
			lo |= payload << shift
		default:
			acc = new(big.Int).SetUint64(lo)
			acc.Or(acc, new(big.Int).Lsh(new(big.Int).SetUint64(payload), shift))
		}
		shift += payloadBits

		if cont == 0 {
			break
		}
	}

	return Value{Low: lo, Big: acc}, nil
}

// ReadUint64 decodes a VBR value and narrows it to uint64 in one step.
func ReadUint64(src BitSource, n uint) (uint64, error) {
	v, err := Read(src, n)
	if err != nil {
		return 0, err
	}
	return v.Uint64()
}

// ReadUint32 decodes a VBR value and narrows it to uint32, failing if
// the decoded value does not fit.
func ReadUint32(src BitSource, n uint) (uint32, error) {
	v, err := ReadUint64(src, n)
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("vbr: value %d overflows 32 bits", v)
	}
	return uint32(v), nil
}

// ReadUint8 decodes a VBR value and narrows it to uint8, failing if
// the decoded value does not fit.
func ReadUint8(src BitSource, n uint) (uint8, error) {
	v, err := ReadUint64(src, n)
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint8 {
		return 0, fmt.Errorf("vbr: value %d overflows 8 bits", v)
	}
	return uint8(v), nil
}
