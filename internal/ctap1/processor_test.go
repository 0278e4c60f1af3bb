package ctap1

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/zequinha-taveira/openfido-esp/internal/attestation"
	"github.com/zequinha-taveira/openfido-esp/internal/cryptoprovider"
	"github.com/zequinha-taveira/openfido-esp/internal/devicestate"
	"github.com/zequinha-taveira/openfido-esp/internal/presence"
	"github.com/zequinha-taveira/openfido-esp/internal/store"
)

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	return newTestProcessorWithSensor(t, presence.AlwaysPresent{})
}

func newTestProcessorWithSensor(t *testing.T, sensor presence.Sensor) *Processor {
	t.Helper()
	crypto := cryptoprovider.NewSoftware()
	fs, err := store.NewFileStore(t.TempDir(), crypto)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	attPriv, attPub, err := crypto.P256Keygen()
	if err != nil {
		t.Fatalf("attestation keygen: %v", err)
	}
	_ = attPub
	cert, err := attestation.GenerateSelfSignedCert(attestation.Key{Private: attPriv}, "test")
	if err != nil {
		t.Fatalf("self signed cert: %v", err)
	}
	att := attestation.Key{Private: attPriv, CertDER: cert}
	state := devicestate.New(crypto, fs, sensor, att, [16]byte{})
	return New(state)
}

// panicSensor fails the test if Await is ever invoked, for asserting
// that a code path must not sample presence at all.
type panicSensor struct{}

func (panicSensor) Await(keepalive func()) bool {
	panic("presence.Await called on a path that must not sample presence")
}

func rpIDHash(crypto cryptoprovider.Provider, rpID string) [32]byte {
	return crypto.SHA256([]byte(rpID))
}

func apdu(cla, ins, p1, p2 byte, data []byte) []byte {
	out := []byte{cla, ins, p1, p2}
	if data != nil {
		out = append(out, byte(len(data)))
		out = append(out, data...)
	}
	return out
}

// TestS2Version exercises scenario S2 ("VERSION").
func TestS2Version(t *testing.T) {
	p := newTestProcessor(t)
	resp := p.Process(apdu(0x00, InsVersion, 0x00, 0x00, nil), nil)
	if len(resp) < 2 {
		t.Fatalf("response too short: %x", resp)
	}
	sw := binary.BigEndian.Uint16(resp[len(resp)-2:])
	if sw != SWSuccess {
		t.Fatalf("unexpected SW: 0x%04x", sw)
	}
	if string(resp[:len(resp)-2]) != "U2F_V2" {
		t.Fatalf("unexpected version string: %q", resp[:len(resp)-2])
	}
}

// TestS3RegisterThenAuthenticate exercises scenario S3: REGISTER
// followed by AUTHENTICATE with the returned key handle, checking the
// assertion signature verifies against the returned public key and
// that the counter strictly increases (testable property 4).
func TestS3RegisterThenAuthenticate(t *testing.T) {
	p := newTestProcessor(t)
	crypto := cryptoprovider.NewSoftware()
	rpHash := rpIDHash(crypto, "example.com")

	challenge := bytes.Repeat([]byte{0x11}, 32)
	regData := append(append([]byte{}, challenge...), rpHash[:]...)
	regResp := p.Process(apdu(0x00, InsRegister, 0x00, 0x00, regData), nil)

	sw := binary.BigEndian.Uint16(regResp[len(regResp)-2:])
	if sw != SWSuccess {
		t.Fatalf("register failed: SW=0x%04x", sw)
	}
	body := regResp[:len(regResp)-2]
	if body[0] != registeredResponseTag {
		t.Fatalf("unexpected reserved byte: 0x%02x", body[0])
	}
	pub := body[1:66]
	khLen := int(body[66])
	if khLen != 60 {
		t.Fatalf("unexpected key handle length: %d", khLen)
	}
	kh := body[67 : 67+khLen]

	authChallenge := bytes.Repeat([]byte{0x22}, 32)
	authData := append([]byte{}, authChallenge...)
	authData = append(authData, rpHash[:]...)
	authData = append(authData, byte(khLen))
	authData = append(authData, kh...)
	authResp := p.Process(apdu(0x00, InsAuthenticate, CtrlEnforceUserPresence, 0x00, authData), nil)

	sw = binary.BigEndian.Uint16(authResp[len(authResp)-2:])
	if sw != SWSuccess {
		t.Fatalf("authenticate failed: SW=0x%04x", sw)
	}
	authBody := authResp[:len(authResp)-2]
	up := authBody[0]
	if up != 0x01 {
		t.Fatalf("expected user presence bit set, got 0x%02x", up)
	}
	counter := binary.BigEndian.Uint32(authBody[1:5])
	if counter != 1 {
		t.Fatalf("expected counter 1 on first assertion, got %d", counter)
	}
	sig := authBody[5:]

	sigInput := append(append([]byte{}, rpHash[:]...), up)
	ctrBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(ctrBytes, counter)
	sigInput = append(sigInput, ctrBytes...)
	sigInput = append(sigInput, authChallenge...)
	digest := crypto.SHA256(sigInput)

	x := new(big.Int).SetBytes(pub[1:33])
	y := new(big.Int).SetBytes(pub[33:65])
	pk := &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}
	if !ecdsa.VerifyASN1(pk, digest[:], sig) {
		t.Fatalf("assertion signature did not verify")
	}

	// A second assertion strictly increases the counter.
	authResp2 := p.Process(apdu(0x00, InsAuthenticate, CtrlEnforceUserPresence, 0x00, authData), nil)
	sw2 := binary.BigEndian.Uint16(authResp2[len(authResp2)-2:])
	if sw2 != SWSuccess {
		t.Fatalf("second authenticate failed: SW=0x%04x", sw2)
	}
	counter2 := binary.BigEndian.Uint32(authResp2[1:5])
	if counter2 != 2 {
		t.Fatalf("expected counter 2 on second assertion, got %d", counter2)
	}
}

// TestAuthenticateWrongRPFails checks that a key handle wrapped under
// one RP ID hash is rejected when presented with a different one
// (testable property 2/invariant 3).
func TestAuthenticateWrongRPFails(t *testing.T) {
	p := newTestProcessor(t)
	crypto := cryptoprovider.NewSoftware()
	rpHash := rpIDHash(crypto, "example.com")
	otherRPHash := rpIDHash(crypto, "evil.example")

	challenge := bytes.Repeat([]byte{0x33}, 32)
	regData := append(append([]byte{}, challenge...), rpHash[:]...)
	regResp := p.Process(apdu(0x00, InsRegister, 0x00, 0x00, regData), nil)
	body := regResp[:len(regResp)-2]
	khLen := int(body[66])
	kh := body[67 : 67+khLen]

	authData := append([]byte{}, challenge...)
	authData = append(authData, otherRPHash[:]...)
	authData = append(authData, byte(khLen))
	authData = append(authData, kh...)
	authResp := p.Process(apdu(0x00, InsAuthenticate, CtrlEnforceUserPresence, 0x00, authData), nil)

	sw := binary.BigEndian.Uint16(authResp[len(authResp)-2:])
	if sw != SWWrongData {
		t.Fatalf("expected SW_WRONG_DATA for cross-RP key handle, got 0x%04x", sw)
	}
}

// TestAuthenticateCheckOnly exercises the P1=0x07 "check only" control
// byte: a valid handle reports SW_CONDITIONS_NOT_SATISFIED (never
// SW_SUCCESS, since no assertion is produced) and an invalid one
// reports SW_WRONG_DATA.
func TestAuthenticateCheckOnly(t *testing.T) {
	p := newTestProcessor(t)
	crypto := cryptoprovider.NewSoftware()
	rpHash := rpIDHash(crypto, "example.com")

	challenge := bytes.Repeat([]byte{0x44}, 32)
	regData := append(append([]byte{}, challenge...), rpHash[:]...)
	regResp := p.Process(apdu(0x00, InsRegister, 0x00, 0x00, regData), nil)
	body := regResp[:len(regResp)-2]
	khLen := int(body[66])
	kh := body[67 : 67+khLen]

	authData := append([]byte{}, challenge...)
	authData = append(authData, rpHash[:]...)
	authData = append(authData, byte(khLen))
	authData = append(authData, kh...)
	resp := p.Process(apdu(0x00, InsAuthenticate, CtrlCheckOnly, 0x00, authData), nil)
	sw := binary.BigEndian.Uint16(resp[len(resp)-2:])
	if sw != SWConditionsNotSatisfied {
		t.Fatalf("expected SW_CONDITIONS_NOT_SATISFIED for valid handle check, got 0x%04x", sw)
	}

	authData[len(authData)-1] ^= 0x01
	resp = p.Process(apdu(0x00, InsAuthenticate, CtrlCheckOnly, 0x00, authData), nil)
	sw = binary.BigEndian.Uint16(resp[len(resp)-2:])
	if sw != SWWrongData {
		t.Fatalf("expected SW_WRONG_DATA for invalid handle check, got 0x%04x", sw)
	}
}

// TestAuthenticateDontEnforceDoesNotSamplePresence exercises P1=0x08:
// the authenticator must sign immediately, reporting UP=0x00, without
// ever calling Presence.Await (spec.md section 4.6's "don't enforce"
// wording).
func TestAuthenticateDontEnforceDoesNotSamplePresence(t *testing.T) {
	p := newTestProcessor(t)
	crypto := cryptoprovider.NewSoftware()
	rpHash := rpIDHash(crypto, "example.com")

	challenge := bytes.Repeat([]byte{0x55}, 32)
	regData := append(append([]byte{}, challenge...), rpHash[:]...)
	regResp := p.Process(apdu(0x00, InsRegister, 0x00, 0x00, regData), nil)
	body := regResp[:len(regResp)-2]
	khLen := int(body[66])
	kh := body[67 : 67+khLen]

	// Swap in a sensor that fails the test if Await is ever called,
	// proving the don't-enforce path never samples presence.
	p.State.Presence = panicSensor{}

	authData := append([]byte{}, challenge...)
	authData = append(authData, rpHash[:]...)
	authData = append(authData, byte(khLen))
	authData = append(authData, kh...)
	resp := p.Process(apdu(0x00, InsAuthenticate, CtrlDontEnforceUserPresence, 0x00, authData), nil)

	sw := binary.BigEndian.Uint16(resp[len(resp)-2:])
	if sw != SWSuccess {
		t.Fatalf("authenticate failed: SW=0x%04x", sw)
	}
	authBody := resp[:len(resp)-2]
	if up := authBody[0]; up != 0x00 {
		t.Fatalf("expected UP=0x00 for don't-enforce, got 0x%02x", up)
	}
}
