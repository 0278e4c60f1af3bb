package cbor

// Skip advances the cursor past one complete CBOR value of any major
// type, recursing into arrays and maps so nested containers are
// skipped in full. This is the operation spec.md section 4.3 calls
// out by name: the reference firmware this module reimplements lacks
// it and fails whenever an optional field arrives out of the order
// its linear parser expects. With Skip, MAKE_CREDENTIAL and
// GET_ASSERTION can record (key, value-slice) pairs in a first pass
// and decode each known key from its slice in a second, regardless of
// wire order.
func (d *Decoder) Skip() error {
	start := d.pos
	major, length, indef, err := d.head()
	if err != nil {
		return err
	}
	if indef {
		return ErrTypeMismatch
	}

	switch major {
	case MajorUnsigned, MajorNegative:
		// Length already consumed by head(); nothing more to skip.
		return nil
	case MajorBytes, MajorText:
		if _, err := d.readN(int(length)); err != nil {
			d.pos = start
			return err
		}
		return nil
	case MajorArray:
		for i := uint64(0); i < length; i++ {
			if err := d.Skip(); err != nil {
				d.pos = start
				return err
			}
		}
		return nil
	case MajorMap:
		for i := uint64(0); i < length; i++ {
			if err := d.Skip(); err != nil { // key
				d.pos = start
				return err
			}
			if err := d.Skip(); err != nil { // value
				d.pos = start
				return err
			}
		}
		return nil
	default:
		d.pos = start
		return ErrTypeMismatch
	}
}

// SkipValue returns the raw bytes of the next complete value without
// requiring the caller to know its type in advance. It is the
// building block the two-pass CTAP2 map parsers use to stash
// (key, value-slice) pairs for later, order-independent re-decoding.
func (d *Decoder) SkipValue() ([]byte, error) {
	start := d.pos
	if err := d.Skip(); err != nil {
		return nil, err
	}
	return d.buf[start:d.pos], nil
}
