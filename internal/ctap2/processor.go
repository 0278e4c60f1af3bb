package ctap2

import "github.com/zequinha-taveira/openfido-esp/internal/devicestate"

// Processor implements the CTAP2 CBOR command dispatch from spec.md
// section 4.7. It shares the same *devicestate.State as ctap1.Processor.
type Processor struct {
	State *devicestate.State
}

// New returns a ready-to-use CTAP2 Processor.
func New(state *devicestate.State) *Processor {
	return &Processor{State: state}
}

// Process dispatches one CTAP2 message: a single command byte
// followed by an optional CBOR-encoded parameter map. It returns the
// status byte and, on success, the CBOR-encoded response body;
// keepalive is invoked periodically while blocked on user presence.
func (p *Processor) Process(msg []byte, keepalive func()) (status uint8, body []byte) {
	if len(msg) == 0 {
		return ErrInvalidLength, nil
	}
	cmd := msg[0]
	data := msg[1:]

	var err error
	switch cmd {
	case CmdGetInfo:
		body, err = p.getInfo()
	case CmdMakeCredential:
		body, err = p.makeCredential(data, keepalive)
	case CmdGetAssertion:
		body, err = p.getAssertion(data, keepalive)
	case CmdClientPIN, CmdReset, CmdGetNextAssertion, CmdBioEnrollment, CmdCredentialManagement:
		// PIN protocols, resident-credential management, and
		// extensions are out of scope (spec.md Non-goals).
		err = newErr(cmd, ErrUnsupportedOption)
	default:
		err = newErr(cmd, ErrInvalidCommand)
	}

	if err != nil {
		if ce, ok := err.(*CommandError); ok {
			return ce.Code, nil
		}
		return ErrOther, nil
	}
	return ErrSuccess, body
}
