package ctap1

import (
	"encoding/binary"

	"github.com/zequinha-taveira/openfido-esp/internal/credential"
	"github.com/zequinha-taveira/openfido-esp/internal/cryptoprovider"
	"github.com/zequinha-taveira/openfido-esp/internal/devicestate"
)

// versionString is the fixed U2F version string (spec.md section 4.6).
const versionString = "U2F_V2"

// registeredResponseTag is the fixed reserved byte 0x05 prefixing a
// successful REGISTER response.
const registeredResponseTag = 0x05

// Processor implements the U2F (CTAP1) APDU dispatch from spec.md
// section 4.6. It is stateless beyond the shared *devicestate.State.
type Processor struct {
	State *devicestate.State
}

// New returns a ready-to-use CTAP1 Processor.
func New(state *devicestate.State) *Processor {
	return &Processor{State: state}
}

// Process dispatches one APDU and returns the full response
// (DATA || SW1 SW2), per spec.md section 4.6. keepalive is invoked
// periodically while blocked on user presence.
func (p *Processor) Process(apdu []byte, keepalive func()) []byte {
	req, err := ParseRequest(apdu)
	if err != nil {
		if se, ok := err.(*StatusError); ok {
			return EncodeStatusOnly(se.SW)
		}
		return EncodeStatusOnly(SWWrongLength)
	}

	switch req.INS {
	case InsVersion:
		return p.version()
	case InsRegister:
		return p.register(req, keepalive)
	case InsAuthenticate:
		return p.authenticate(req, keepalive)
	default:
		return EncodeStatusOnly(SWInstructionNotSupported)
	}
}

func (p *Processor) version() []byte {
	return EncodeResponse([]byte(versionString), SWSuccess)
}

func (p *Processor) register(req Request, keepalive func()) []byte {
	if len(req.Data) != 64 {
		return EncodeStatusOnly(SWWrongLength)
	}
	challenge := req.Data[0:32]
	var rpIDHash [32]byte
	copy(rpIDHash[:], req.Data[32:64])

	if !p.State.Presence.Await(keepalive) {
		return EncodeStatusOnly(SWConditionsNotSatisfied)
	}

	km, err := p.State.Store.GetMasterKey()
	if err != nil {
		return EncodeStatusOnly(SWWrongData)
	}
	priv, pub, err := p.State.Crypto.P256Keygen()
	if err != nil {
		return EncodeStatusOnly(SWWrongData)
	}
	kh, err := credential.Wrap(p.State.Crypto, km, rpIDHash, priv)
	if err != nil {
		return EncodeStatusOnly(SWWrongData)
	}

	sigInput := make([]byte, 0, 1+32+32+len(kh)+cryptoprovider.PublicKeySize)
	sigInput = append(sigInput, 0x00)
	sigInput = append(sigInput, rpIDHash[:]...)
	sigInput = append(sigInput, challenge...)
	sigInput = append(sigInput, kh[:]...)
	sigInput = append(sigInput, pub[:]...)
	digest := p.State.Crypto.SHA256(sigInput)

	sig, err := p.State.Crypto.P256Sign(p.State.Attestation.Private, digest)
	if err != nil {
		return EncodeStatusOnly(SWWrongData)
	}

	body := make([]byte, 0, 1+cryptoprovider.PublicKeySize+1+len(kh)+len(p.State.Attestation.CertDER)+len(sig))
	body = append(body, registeredResponseTag)
	body = append(body, pub[:]...)
	body = append(body, byte(len(kh)))
	body = append(body, kh[:]...)
	body = append(body, p.State.Attestation.CertDER...)
	body = append(body, sig...)
	return EncodeResponse(body, SWSuccess)
}

func (p *Processor) authenticate(req Request, keepalive func()) []byte {
	if len(req.Data) < 65 {
		return EncodeStatusOnly(SWWrongLength)
	}
	challenge := req.Data[0:32]
	var rpIDHash [32]byte
	copy(rpIDHash[:], req.Data[32:64])
	khLen := int(req.Data[64])
	if len(req.Data) < 65+khLen {
		return EncodeStatusOnly(SWWrongLength)
	}
	kh := req.Data[65 : 65+khLen]

	km, err := p.State.Store.GetMasterKey()
	if err != nil {
		return EncodeStatusOnly(SWWrongData)
	}

	switch req.P1 {
	case CtrlCheckOnly:
		if _, err := credential.Unwrap(p.State.Crypto, km, rpIDHash, kh); err != nil {
			return EncodeStatusOnly(SWWrongData)
		}
		// A valid handle still requires user presence per spec.md
		// section 4.6 — the "error" name is historical.
		return EncodeStatusOnly(SWConditionsNotSatisfied)

	case CtrlEnforceUserPresence, CtrlDontEnforceUserPresence:
		priv, err := credential.Unwrap(p.State.Crypto, km, rpIDHash, kh)
		if err != nil {
			return EncodeStatusOnly(SWWrongData)
		}

		var up byte
		if req.P1 == CtrlEnforceUserPresence {
			if !p.State.Presence.Await(keepalive) {
				return EncodeStatusOnly(SWConditionsNotSatisfied)
			}
			up = 0x01
		}
		// CtrlDontEnforceUserPresence signs immediately without
		// sampling presence at all: spec.md section 4.6's "don't
		// enforce" control byte must not block, so up stays 0x00
		// rather than calling the (possibly blocking) Presence.Await.

		counter, err := p.State.NextCounter()
		if err != nil {
			return EncodeStatusOnly(SWWrongData)
		}

		sigInput := make([]byte, 0, 32+1+4+32)
		sigInput = append(sigInput, rpIDHash[:]...)
		sigInput = append(sigInput, up)
		ctrBytes := make([]byte, 4)
		binary.BigEndian.PutUint32(ctrBytes, counter)
		sigInput = append(sigInput, ctrBytes...)
		sigInput = append(sigInput, challenge...)
		digest := p.State.Crypto.SHA256(sigInput)

		sig, err := p.State.Crypto.P256Sign(priv, digest)
		if err != nil {
			return EncodeStatusOnly(SWWrongData)
		}

		body := make([]byte, 0, 1+4+len(sig))
		body = append(body, up)
		body = append(body, ctrBytes...)
		body = append(body, sig...)
		return EncodeResponse(body, SWSuccess)

	default:
		return EncodeStatusOnly(SWWrongData)
	}
}
