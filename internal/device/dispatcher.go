// Package device implements the top-level request dispatcher spec.md
// section 9 describes: it owns the single devicestate.State for the
// process lifetime and routes each reassembled HID message to the
// CTAP1 or CTAP2 processor by HID command byte.
package device

import (
	"github.com/zequinha-taveira/openfido-esp/internal/ctap1"
	"github.com/zequinha-taveira/openfido-esp/internal/ctap2"
	"github.com/zequinha-taveira/openfido-esp/internal/devicestate"
	"github.com/zequinha-taveira/openfido-esp/internal/hidtransport"
)

// Dispatcher implements hidtransport.CommandHandler, fanning U2FHID_MSG
// payloads out to the CTAP1 APDU processor and U2FHID_CBOR payloads out
// to the CTAP2 command processor.
type Dispatcher struct {
	State *devicestate.State
	ctap1 *ctap1.Processor
	ctap2 *ctap2.Processor
}

// New constructs a Dispatcher owning state for the lifetime of the
// process. The caller retains state only to build other collaborators
// (e.g. cmd/provision writing the attestation key); the running
// authenticator must treat the Dispatcher as the sole owner.
func New(state *devicestate.State) *Dispatcher {
	return &Dispatcher{
		State: state,
		ctap1: ctap1.New(state),
		ctap2: ctap2.New(state),
	}
}

// Handle implements hidtransport.CommandHandler. A panic inside either
// processor (malformed input a validation pass missed) is recovered
// here rather than crashing the process; the transport turns the
// returned error into a generic HID ERROR report, and Kₘ/the counter
// are left untouched since neither processor's store writes happen
// before its own input validation completes.
func (d *Dispatcher) Handle(hctx hidtransport.HandleContext, cmd byte, payload []byte) (resp []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp, err = nil, &FatalError{Cmd: cmd, Cause: r}
		}
	}()
	switch cmd {
	case hidtransport.CmdMsg:
		return d.ctap1.Process(payload, hctx.Keepalive), nil
	case hidtransport.CmdCBOR:
		status, body := d.ctap2.Process(payload, hctx.Keepalive)
		out := make([]byte, 0, 1+len(body))
		out = append(out, status)
		out = append(out, body...)
		return out, nil
	case hidtransport.CmdPing:
		return payload, nil
	case hidtransport.CmdWink:
		return nil, nil
	case hidtransport.CmdLock:
		return nil, nil
	default:
		return nil, nil
	}
}
