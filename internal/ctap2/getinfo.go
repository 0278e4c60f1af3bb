package ctap2

import "github.com/zequinha-taveira/openfido-esp/internal/cbor"

// responseBufSize bounds every CTAP2 CBOR response this processor
// builds; spec.md section 4.3 fixes the codec to a caller-supplied
// buffer rather than an unbounded allocator.
const responseBufSize = 1024

// infoVersions are the protocol versions this authenticator speaks:
// both the CTAP1/U2F backwards-compatible surface and CTAP2.
var infoVersions = []string{"U2F_V2", "FIDO_2_0"}

// getInfo builds the authenticatorGetInfo response (spec.md section
// 4.7): {1: versions, 2: extensions, 3: aaguid, 4: options}. No
// extensions are supported (spec.md Non-goals), so field 2 is an empty
// array. The options map reports rk=false, up=true, plat=false as CBOR
// unsigned integers 0/1 rather than booleans: the minimal codec (spec.md
// section 4.3) covers major types 0-5 only, but major type 0 (uint) is
// enough to carry a 0/1-valued option, the same encoding the reference
// firmware's handle_get_info() uses.
func (p *Processor) getInfo() ([]byte, error) {
	buf := make([]byte, responseBufSize)
	e := cbor.NewEncoder(buf)

	e.MapHeader(4)
	e.Uint(1)
	e.ArrayHeader(len(infoVersions))
	for _, v := range infoVersions {
		e.Text(v)
	}
	e.Uint(2)
	e.ArrayHeader(0)
	e.Uint(3)
	e.Bytes(p.State.AAGUID[:])
	e.Uint(4)
	e.MapHeader(3)
	e.Text("rk")
	e.Uint(0)
	e.Text("up")
	e.Uint(1)
	e.Text("plat")
	e.Uint(0)

	if e.Overflowed {
		return nil, newErr(CmdGetInfo, ErrRequestTooLarge)
	}
	return e.Bytes(), nil
}
