package ctap2

import (
	"github.com/zequinha-taveira/openfido-esp/internal/cbor"
	"github.com/zequinha-taveira/openfido-esp/internal/cryptoprovider"
)

// COSE key-type and algorithm identifiers (RFC 9053), restricted to
// the single algorithm spec.md section 4.7 requires: ES256 (ECDSA
// w/ SHA-256 over P-256, COSE algorithm -7).
const (
	coseKtyEC2  = 2
	coseAlgES256 = -7
	coseCrvP256 = 1
)

// COSE key-map labels for an EC2 key.
const (
	coseLabelKty   = 1
	coseLabelAlg   = 3
	coseLabelCrv   = -1
	coseLabelX     = -2
	coseLabelY     = -3
)

// EncodeCOSEKey renders pub (an uncompressed P-256 point, 0x04||X||Y)
// as the 5-entry COSE_Key CBOR map WebAuthn's credentialPublicKey
// requires: {1: 2, 3: -7, -1: 1, -2: X, -3: Y}.
func EncodeCOSEKey(buf []byte, pub [cryptoprovider.PublicKeySize]byte) []byte {
	e := cbor.NewEncoder(buf)
	e.MapHeader(5)
	e.Int(coseLabelKty)
	e.Int(coseKtyEC2)
	e.Int(coseLabelAlg)
	e.Int(coseAlgES256)
	e.Int(coseLabelCrv)
	e.Int(coseCrvP256)
	e.Int(coseLabelX)
	e.Bytes(pub[1:33])
	e.Int(coseLabelY)
	e.Bytes(pub[33:65])
	return e.Bytes()
}
