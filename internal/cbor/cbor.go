// Package cbor implements the minimal subset of RFC 8949 CBOR that
// CTAP2 requires, per spec.md section 4.3: unsigned integers (major
// type 0), negative integers (1), byte strings (2), text strings (3),
// arrays (4), and maps (5). Indefinite-length items are not supported
// and are rejected with TypeMismatch.
package cbor

import "errors"

// Major types.
const (
	MajorUnsigned = 0
	MajorNegative = 1
	MajorBytes    = 2
	MajorText     = 3
	MajorArray    = 4
	MajorMap      = 5
)

// Additional-info values with special meaning.
const (
	ai1Byte   = 24
	ai2Byte   = 25
	ai4Byte   = 26
	ai8Byte   = 27
	aiIndefinite = 31
)

// ErrTruncatedCBOR is returned when a read would run past the end of
// the input slice.
var ErrTruncatedCBOR = errors.New("cbor: truncated input")

// ErrTypeMismatch is returned when the decoder encounters a major
// type or additional-info value it does not support, or when a typed
// accessor is called against a value of the wrong major type.
var ErrTypeMismatch = errors.New("cbor: type mismatch")

// ErrOverflow names the encoder-buffer-overflow condition for callers
// that report it. The Encoder itself never returns it: when the
// caller-supplied buffer is too small, writes past capacity are
// silently dropped and Encoder.Overflowed is set instead.
var ErrOverflow = errors.New("cbor: encoder buffer overflow")
