package hidtransport

import (
	"errors"
	"fmt"
)

var (
	errInvalidSeq     = errors.New("hidtransport: unexpected sequence number")
	errInvalidChannel = errors.New("hidtransport: no in-flight transaction on channel")
)

// ChannelError reports an HID-level framing failure, carrying the
// numeric error code spec.md section 7 says must be returned as the
// payload of an HID ERROR report. Grounded on the teacher's *SWError
// pattern (pkg/ntag424/errors.go): a typed error that also exposes its
// wire-format code so callers can use errors.As instead of matching
// strings.
type ChannelError struct {
	CID  uint32
	Code byte
	Err  error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("hidtransport: channel 0x%08X error 0x%02X: %v", e.CID, e.Code, e.Err)
}

func (e *ChannelError) Unwrap() error { return e.Err }

func newChannelError(cid uint32, code byte, err error) *ChannelError {
	return &ChannelError{CID: cid, Code: code, Err: err}
}
