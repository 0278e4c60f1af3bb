// Package ctap1 implements the U2F APDU processor from spec.md
// section 4.6: VERSION, REGISTER, and AUTHENTICATE over short-form
// ISO 7816-4 APDUs.
package ctap1

import "fmt"

// Status words (spec.md section 4.6 and section 7).
const (
	SWSuccess               uint16 = 0x9000
	SWConditionsNotSatisfied uint16 = 0x6985
	SWWrongData             uint16 = 0x6A80
	SWWrongLength           uint16 = 0x6700
	SWInstructionNotSupported uint16 = 0x6D00
)

// Instruction bytes.
const (
	InsVersion      byte = 0x03
	InsRegister     byte = 0x01
	InsAuthenticate byte = 0x02
)

// AUTHENTICATE control byte (P1) values.
const (
	CtrlCheckOnly             byte = 0x07
	CtrlEnforceUserPresence   byte = 0x03
	CtrlDontEnforceUserPresence byte = 0x08
)

// StatusError reports a U2F status-word failure, grounded on the
// teacher's *SWError (pkg/ntag424/errors.go): a typed wire-code error
// instead of an opaque string, so tests and callers can use
// errors.As.
type StatusError struct {
	Ins byte
	SW  uint16
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ctap1: INS 0x%02X failed with SW=0x%04X", e.Ins, e.SW)
}
