package cbor

// Encoder writes CBOR into a caller-supplied bounded buffer. It never
// grows the buffer and never panics on overflow: writes past capacity
// are dropped and Overflowed is set, matching spec.md section 4.3's
// "silently truncating on overflow while recording the overflow flag"
// requirement. Callers must check Overflowed after encoding.
type Encoder struct {
	buf        []byte
	n          int
	Overflowed bool
}

// NewEncoder returns an Encoder that writes into buf starting at
// offset 0.
func NewEncoder(buf []byte) *Encoder {
	return &Encoder{buf: buf}
}

// Len returns the number of bytes written so far (including any that
// would have overflowed).
func (e *Encoder) Len() int { return e.n }

// Bytes has two roles, told apart by its argument list. Called with
// no argument it returns the portion of the buffer actually written
// (if Overflowed is set this is a truncated, unusable encoding).
// Called with one byte slice it encodes that slice as a byte string
// (major type 2) and returns nil.
func (e *Encoder) Bytes(b ...[]byte) []byte {
	if len(b) == 0 {
		n := e.n
		if n > len(e.buf) {
			n = len(e.buf)
		}
		return e.buf[:n]
	}
	e.writeHead(MajorBytes, uint64(len(b[0])))
	e.putBytes(b[0])
	return nil
}

func (e *Encoder) putByte(b byte) {
	if e.n < len(e.buf) {
		e.buf[e.n] = b
	} else {
		e.Overflowed = true
	}
	e.n++
}

func (e *Encoder) putBytes(b []byte) {
	for _, c := range b {
		e.putByte(c)
	}
}

// writeHead writes a major type + length header using the minimal
// encoding (0..23 inline, then 1/2/4-byte forms; the 8-byte form is
// not needed by CTAP2 and is not supported).
func (e *Encoder) writeHead(major byte, length uint64) {
	m := major << 5
	switch {
	case length < 24:
		e.putByte(m | byte(length))
	case length <= 0xFF:
		e.putByte(m | ai1Byte)
		e.putByte(byte(length))
	case length <= 0xFFFF:
		e.putByte(m | ai2Byte)
		e.putByte(byte(length >> 8))
		e.putByte(byte(length))
	default:
		e.putByte(m | ai4Byte)
		e.putByte(byte(length >> 24))
		e.putByte(byte(length >> 16))
		e.putByte(byte(length >> 8))
		e.putByte(byte(length))
	}
}

// Uint encodes an unsigned integer (major type 0).
func (e *Encoder) Uint(v uint64) {
	e.writeHead(MajorUnsigned, v)
}

// Int encodes a signed integer, using major type 1 (negative,
// representing -1-n) for negative values and major type 0 otherwise.
func (e *Encoder) Int(v int64) {
	if v >= 0 {
		e.Uint(uint64(v))
		return
	}
	e.writeHead(MajorNegative, uint64(-1-v))
}

// Text encodes a UTF-8 text string (major type 3).
func (e *Encoder) Text(s string) {
	e.writeHead(MajorText, uint64(len(s)))
	e.putBytes([]byte(s))
}

// ArrayHeader writes an array header for n following items. Callers
// encode each element themselves.
func (e *Encoder) ArrayHeader(n int) {
	e.writeHead(MajorArray, uint64(n))
}

// MapHeader writes a map header for n following key/value pairs.
// Callers encode each key and value themselves, in order.
func (e *Encoder) MapHeader(n int) {
	e.writeHead(MajorMap, uint64(n))
}

// Raw copies an already-encoded CBOR value verbatim, for callers
// assembling a larger value out of sub-values built with a separate
// Encoder.
func (e *Encoder) Raw(v []byte) {
	e.putBytes(v)
}
