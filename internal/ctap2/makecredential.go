package ctap2

import (
	"github.com/zequinha-taveira/openfido-esp/internal/cbor"
	"github.com/zequinha-taveira/openfido-esp/internal/credential"
)

// attestedFlag and userPresentFlag are authData flag bits (WebAuthn
// section 6.1): bit 0 is user-present, bit 6 is attested-credential-
// data-included.
const (
	userPresentFlag = 0x01
	attestedFlag    = 0x40
)

// makeCredentialParams holds the fields this processor understands
// out of an authenticatorMakeCredential parameter map. Unknown keys
// (extensions, options, excludeList, pinUvAuthParam) are accepted and
// ignored: PIN protocols, resident credentials, and extensions are
// out of scope (spec.md Non-goals), and an authenticator with no PIN
// set must still honor a request that simply omits them.
type makeCredentialParams struct {
	ClientDataHash []byte
	RPIDHash       [32]byte
	UserID         []byte
}

func parseMakeCredentialParams(crypto interface {
	SHA256([]byte) [32]byte
}, data []byte) (makeCredentialParams, error) {
	var out makeCredentialParams
	fields, err := parseTopLevelMap(data)
	if err != nil {
		return out, newErr(CmdMakeCredential, ErrInvalidCBOR)
	}

	hashRaw, ok := fields[1]
	if !ok {
		return out, newErr(CmdMakeCredential, ErrMissingParameter)
	}
	hash, err := cbor.NewDecoder(hashRaw).Bytes()
	if err != nil || len(hash) != 32 {
		return out, newErr(CmdMakeCredential, ErrInvalidParameter)
	}
	out.ClientDataHash = hash

	rpRaw, ok := fields[2]
	if !ok {
		return out, newErr(CmdMakeCredential, ErrMissingParameter)
	}
	rpID, err := extractTextField(rpRaw, "id")
	if err != nil {
		return out, newErr(CmdMakeCredential, ErrMissingParameter)
	}
	out.RPIDHash = crypto.SHA256([]byte(rpID))

	userRaw, ok := fields[3]
	if !ok {
		return out, newErr(CmdMakeCredential, ErrMissingParameter)
	}
	userID, err := extractBytesField(userRaw, "id")
	if err != nil {
		return out, newErr(CmdMakeCredential, ErrMissingParameter)
	}
	out.UserID = userID

	paramsRaw, ok := fields[4]
	if !ok {
		return out, newErr(CmdMakeCredential, ErrMissingParameter)
	}
	if !pubKeyCredParamsSupportES256(paramsRaw) {
		return out, newErr(CmdMakeCredential, ErrUnsupportedAlgorithm)
	}
	return out, nil
}

// pubKeyCredParamsSupportES256 scans a pubKeyCredParams array (each
// entry a {"alg": int, "type": "public-key"} map, WebAuthn section
// 5.3) for an ES256 (alg == -7) entry, the only algorithm this
// authenticator's attestation key can sign with.
func pubKeyCredParamsSupportES256(arrayData []byte) bool {
	d := cbor.NewDecoder(arrayData)
	n, err := d.ArrayHeader()
	if err != nil {
		return false
	}
	for i := 0; i < n; i++ {
		alg, err := extractIntField(d, "alg")
		if err != nil {
			return false
		}
		if alg == coseAlgES256 {
			return true
		}
	}
	return false
}

// extractIntField reads one map entry off d (the next value in the
// stream must be a map) and returns the integer stored under the
// given text-string key, skipping every other entry.
func extractIntField(d *cbor.Decoder, key string) (int64, error) {
	n, err := d.MapHeader()
	if err != nil {
		return 0, err
	}
	var value int64
	found := false
	for i := 0; i < n; i++ {
		k, err := d.Text()
		if err != nil {
			return 0, err
		}
		if k != key {
			if err := d.Skip(); err != nil {
				return 0, err
			}
			continue
		}
		value, err = d.Int()
		if err != nil {
			return 0, err
		}
		found = true
	}
	if !found {
		return 0, cbor.ErrTypeMismatch
	}
	return value, nil
}

// extractTextField decodes a top-level CBOR map and returns the text
// value stored under the given text-string key.
func extractTextField(mapData []byte, key string) (string, error) {
	d := cbor.NewDecoder(mapData)
	n, err := d.MapHeader()
	if err != nil {
		return "", err
	}
	for i := 0; i < n; i++ {
		k, err := d.Text()
		if err != nil {
			return "", err
		}
		if k != key {
			if err := d.Skip(); err != nil {
				return "", err
			}
			continue
		}
		return d.Text()
	}
	return "", cbor.ErrTypeMismatch
}

// extractBytesField is extractTextField for a byte-string-valued key.
func extractBytesField(mapData []byte, key string) ([]byte, error) {
	d := cbor.NewDecoder(mapData)
	n, err := d.MapHeader()
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		k, err := d.Text()
		if err != nil {
			return nil, err
		}
		if k != key {
			if err := d.Skip(); err != nil {
				return nil, err
			}
			continue
		}
		return d.Bytes()
	}
	return nil, cbor.ErrTypeMismatch
}

// makeCredential implements authenticatorMakeCredential (spec.md
// section 4.7): requires user presence, mints a fresh P-256 keypair,
// wraps it into a credential ID via internal/credential, and returns
// a packed self-contained attestation signed with the device's
// attestation key.
func (p *Processor) makeCredential(data []byte, keepalive func()) ([]byte, error) {
	params, err := parseMakeCredentialParams(p.State.Crypto, data)
	if err != nil {
		return nil, err
	}

	if !p.State.Presence.Await(keepalive) {
		return nil, newErr(CmdMakeCredential, ErrOperationDenied)
	}

	km, err := p.State.Store.GetMasterKey()
	if err != nil {
		return nil, newErr(CmdMakeCredential, ErrProcessing)
	}
	counter, err := p.State.Store.GetCounter()
	if err != nil {
		return nil, newErr(CmdMakeCredential, ErrProcessing)
	}
	priv, pub, err := p.State.Crypto.P256Keygen()
	if err != nil {
		return nil, newErr(CmdMakeCredential, ErrProcessing)
	}
	credID, err := credential.Wrap(p.State.Crypto, km, params.RPIDHash, priv)
	if err != nil {
		return nil, newErr(CmdMakeCredential, ErrProcessing)
	}

	coseBuf := make([]byte, 256)
	cosePub := EncodeCOSEKey(coseBuf, pub)

	authData := make([]byte, 0, 32+1+4+16+2+credential.IDSize+len(cosePub))
	authData = append(authData, params.RPIDHash[:]...)
	authData = append(authData, userPresentFlag|attestedFlag)
	authData = append(authData, byte(counter>>24), byte(counter>>16), byte(counter>>8), byte(counter))
	authData = append(authData, p.State.AAGUID[:]...)
	authData = append(authData, byte(credential.IDSize>>8), byte(credential.IDSize))
	authData = append(authData, credID[:]...)
	authData = append(authData, cosePub...)

	sigInput := append(append([]byte{}, authData...), params.ClientDataHash...)
	digest := p.State.Crypto.SHA256(sigInput)
	sig, err := p.State.Crypto.P256Sign(p.State.Attestation.Private, digest)
	if err != nil {
		return nil, newErr(CmdMakeCredential, ErrProcessing)
	}

	buf := make([]byte, responseBufSize*2)
	e := cbor.NewEncoder(buf)
	e.MapHeader(3)
	e.Uint(1)
	e.Text("packed")
	e.Uint(2)
	e.Bytes(authData)
	e.Uint(3)
	e.MapHeader(2)
	e.Text("alg")
	e.Int(coseAlgES256)
	e.Text("sig")
	e.Bytes(sig)

	if e.Overflowed {
		return nil, newErr(CmdMakeCredential, ErrRequestTooLarge)
	}
	return e.Bytes(), nil
}
