package ctap2

import (
	"encoding/binary"

	"github.com/zequinha-taveira/openfido-esp/internal/cbor"
	"github.com/zequinha-taveira/openfido-esp/internal/credential"
)

type getAssertionParams struct {
	ClientDataHash []byte
	RPIDHash       [32]byte
	AllowList      [][]byte
}

func parseGetAssertionParams(crypto interface {
	SHA256([]byte) [32]byte
}, data []byte) (getAssertionParams, error) {
	var out getAssertionParams
	fields, err := parseTopLevelMap(data)
	if err != nil {
		return out, newErr(CmdGetAssertion, ErrInvalidCBOR)
	}

	rpIDRaw, ok := fields[1]
	if !ok {
		return out, newErr(CmdGetAssertion, ErrMissingParameter)
	}
	rpID, err := cbor.NewDecoder(rpIDRaw).Text()
	if err != nil {
		return out, newErr(CmdGetAssertion, ErrInvalidParameter)
	}
	out.RPIDHash = crypto.SHA256([]byte(rpID))

	hashRaw, ok := fields[2]
	if !ok {
		return out, newErr(CmdGetAssertion, ErrMissingParameter)
	}
	hash, err := cbor.NewDecoder(hashRaw).Bytes()
	if err != nil || len(hash) != 32 {
		return out, newErr(CmdGetAssertion, ErrInvalidParameter)
	}
	out.ClientDataHash = hash

	if allowRaw, ok := fields[3]; ok {
		d := cbor.NewDecoder(allowRaw)
		n, err := d.ArrayHeader()
		if err != nil {
			return out, newErr(CmdGetAssertion, ErrInvalidParameter)
		}
		for i := 0; i < n; i++ {
			entry, err := d.SkipValue()
			if err != nil {
				return out, newErr(CmdGetAssertion, ErrInvalidParameter)
			}
			id, err := extractBytesField(entry, "id")
			if err != nil {
				return out, newErr(CmdGetAssertion, ErrInvalidParameter)
			}
			out.AllowList = append(out.AllowList, id)
		}
	}

	return out, nil
}

// getAssertion implements authenticatorGetAssertion (spec.md section
// 4.7). Resident credentials are out of scope (spec.md Non-goals), so
// an allowList entry is mandatory: this authenticator has no way to
// enumerate credentials it was not just handed a key handle for. The
// allowList is searched in order for the first entry this device's
// credential-wrapping key can unwrap under rpIdHash; that is the only
// behavior a stateless device can offer, since every other entry looks
// identical to it.
func (p *Processor) getAssertion(data []byte, keepalive func()) ([]byte, error) {
	params, err := parseGetAssertionParams(p.State.Crypto, data)
	if err != nil {
		return nil, err
	}
	if len(params.AllowList) == 0 {
		return nil, newErr(CmdGetAssertion, ErrNoCredentials)
	}

	km, err := p.State.Store.GetMasterKey()
	if err != nil {
		return nil, newErr(CmdGetAssertion, ErrProcessing)
	}

	var credID []byte
	var priv [32]byte
	found := false
	for _, id := range params.AllowList {
		pv, err := credential.Unwrap(p.State.Crypto, km, params.RPIDHash, id)
		if err == nil {
			priv = pv
			credID = id
			found = true
			break
		}
	}
	if !found {
		return nil, newErr(CmdGetAssertion, ErrNoCredentials)
	}

	if !p.State.Presence.Await(keepalive) {
		return nil, newErr(CmdGetAssertion, ErrOperationDenied)
	}

	counter, err := p.State.NextCounter()
	if err != nil {
		return nil, newErr(CmdGetAssertion, ErrProcessing)
	}

	authData := make([]byte, 0, 32+1+4)
	authData = append(authData, params.RPIDHash[:]...)
	authData = append(authData, userPresentFlag)
	ctrBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(ctrBytes, counter)
	authData = append(authData, ctrBytes...)

	sigInput := append(append([]byte{}, authData...), params.ClientDataHash...)
	digest := p.State.Crypto.SHA256(sigInput)
	sig, err := p.State.Crypto.P256Sign(priv, digest)
	if err != nil {
		return nil, newErr(CmdGetAssertion, ErrProcessing)
	}

	buf := make([]byte, responseBufSize)
	e := cbor.NewEncoder(buf)
	e.MapHeader(3)
	e.Uint(1)
	e.MapHeader(2)
	e.Text("id")
	e.Bytes(credID)
	e.Text("type")
	e.Text("public-key")
	e.Uint(2)
	e.Bytes(authData)
	e.Uint(3)
	e.Bytes(sig)

	if e.Overflowed {
		return nil, newErr(CmdGetAssertion, ErrRequestTooLarge)
	}
	return e.Bytes(), nil
}
