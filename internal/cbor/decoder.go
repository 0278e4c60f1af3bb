package cbor

// Decoder is a cursor over a bounded input slice. Every read is
// bounds-checked; reads past the end fail with ErrTruncatedCBOR rather
// than panicking, since a malformed host message must never crash the
// authenticator (spec.md section 7).
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder returns a Decoder over buf, starting at offset 0.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Pos returns the current cursor offset.
func (d *Decoder) Pos() int { return d.pos }

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.buf) - d.pos }

// Done reports whether the cursor has reached the end of the input.
func (d *Decoder) Done() bool { return d.pos >= len(d.buf) }

func (d *Decoder) readByte() (byte, error) {
	if d.pos >= len(d.buf) {
		return 0, ErrTruncatedCBOR
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

func (d *Decoder) readN(n int) ([]byte, error) {
	if n < 0 || d.pos+n > len(d.buf) {
		return nil, ErrTruncatedCBOR
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// head reads a major type + length/value. For major types 0 and 1 the
// returned length IS the value. indefinite is true only when the
// 5-bit additional-info field is 31, which this codec rejects
// wherever it is encountered.
func (d *Decoder) head() (major byte, length uint64, indefinite bool, err error) {
	b, err := d.readByte()
	if err != nil {
		return 0, 0, false, err
	}
	major = b >> 5
	ai := b & 0x1F

	switch {
	case ai < ai1Byte:
		return major, uint64(ai), false, nil
	case ai == ai1Byte:
		v, err := d.readN(1)
		if err != nil {
			return 0, 0, false, err
		}
		return major, uint64(v[0]), false, nil
	case ai == ai2Byte:
		v, err := d.readN(2)
		if err != nil {
			return 0, 0, false, err
		}
		return major, uint64(v[0])<<8 | uint64(v[1]), false, nil
	case ai == ai4Byte:
		v, err := d.readN(4)
		if err != nil {
			return 0, 0, false, err
		}
		return major, uint64(v[0])<<24 | uint64(v[1])<<16 | uint64(v[2])<<8 | uint64(v[3]), false, nil
	case ai == ai8Byte:
		// 8-byte lengths are not required by CTAP2 and are not
		// supported by this codec.
		return 0, 0, false, ErrTypeMismatch
	case ai == aiIndefinite:
		return major, 0, true, nil
	default:
		return 0, 0, false, ErrTypeMismatch
	}
}

// PeekMajor returns the major type of the next value without
// consuming it.
func (d *Decoder) PeekMajor() (byte, error) {
	if d.pos >= len(d.buf) {
		return 0, ErrTruncatedCBOR
	}
	return d.buf[d.pos] >> 5, nil
}

// Uint decodes an unsigned integer (major type 0).
func (d *Decoder) Uint() (uint64, error) {
	major, v, indef, err := d.head()
	if err != nil {
		return 0, err
	}
	if major != MajorUnsigned || indef {
		return 0, ErrTypeMismatch
	}
	return v, nil
}

// Int decodes a signed integer encoded as major type 0 or 1.
func (d *Decoder) Int() (int64, error) {
	mark := d.pos
	major, v, indef, err := d.head()
	if err != nil {
		return 0, err
	}
	if indef {
		return 0, ErrTypeMismatch
	}
	switch major {
	case MajorUnsigned:
		return int64(v), nil
	case MajorNegative:
		return -1 - int64(v), nil
	default:
		d.pos = mark
		return 0, ErrTypeMismatch
	}
}

// Bytes decodes a byte string (major type 2).
func (d *Decoder) Bytes() ([]byte, error) {
	major, length, indef, err := d.head()
	if err != nil {
		return nil, err
	}
	if major != MajorBytes || indef {
		return nil, ErrTypeMismatch
	}
	return d.readN(int(length))
}

// Text decodes a UTF-8 text string (major type 3).
func (d *Decoder) Text() (string, error) {
	major, length, indef, err := d.head()
	if err != nil {
		return "", err
	}
	if major != MajorText || indef {
		return "", ErrTypeMismatch
	}
	b, err := d.readN(int(length))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ArrayHeader decodes an array header and returns its element count.
func (d *Decoder) ArrayHeader() (int, error) {
	major, length, indef, err := d.head()
	if err != nil {
		return 0, err
	}
	if major != MajorArray || indef {
		return 0, ErrTypeMismatch
	}
	return int(length), nil
}

// MapHeader decodes a map header and returns its pair count.
func (d *Decoder) MapHeader() (int, error) {
	major, length, indef, err := d.head()
	if err != nil {
		return 0, err
	}
	if major != MajorMap || indef {
		return 0, ErrTypeMismatch
	}
	return int(length), nil
}
