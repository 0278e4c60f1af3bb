// Package attestation holds the fixed attestation key Kₐ and its
// self-signed placeholder certificate (spec.md section 3). A single
// embedded key shared by every device built from this reference
// design is a production-grade vulnerability — see DESIGN.md and
// spec.md section 9 — acceptable only for this non-production
// reference.
package attestation

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/zequinha-taveira/openfido-esp/internal/cryptoprovider"
)

// Key bundles the attestation private key with its DER-encoded
// self-signed placeholder certificate, generated by cmd/provision,
// loaded by cmd/simulator, and consumed read-only by the CTAP1/CTAP2
// processors.
type Key struct {
	Private [cryptoprovider.PrivateKeySize]byte
	CertDER []byte
}

// PublicKey derives the uncompressed P-256 public key for k.Private,
// for callers that need it without a full crypto.Provider.
func (k Key) PublicKey() ([cryptoprovider.PublicKeySize]byte, error) {
	var pub [cryptoprovider.PublicKeySize]byte
	curve := elliptic.P256()
	x, y := curve.ScalarBaseMult(k.Private[:])
	if x.Sign() == 0 && y.Sign() == 0 {
		return pub, fmt.Errorf("attestation: invalid private scalar")
	}
	xb := x.Bytes()
	yb := y.Bytes()
	pub[0] = 0x04
	copy(pub[1+(32-len(xb)):33], xb)
	copy(pub[33+(32-len(yb)):65], yb)
	return pub, nil
}

// FromHex loads an attestation key from a 32-byte hex-encoded scalar
// and a DER certificate, the same one-hex-line-per-secret convention
// pkg/ntag424/keys.go uses for NTAG key files — repurposed here for
// the attestation key instead of a DESFire application key.
func FromHex(privHex string, certDER []byte) (Key, error) {
	var k Key
	raw, err := hexDecode(privHex)
	if err != nil {
		return k, fmt.Errorf("attestation: decode private key: %w", err)
	}
	if len(raw) != cryptoprovider.PrivateKeySize {
		return k, fmt.Errorf("attestation: private key must be %d bytes, got %d", cryptoprovider.PrivateKeySize, len(raw))
	}
	copy(k.Private[:], raw)
	k.CertDER = certDER
	return k, nil
}

func hexDecode(s string) ([]byte, error) {
	return hex.DecodeString(s)
}

// ecdsaPrivateKey reconstructs a crypto/ecdsa key from the raw scalar,
// for use with crypto/x509's certificate-signing API in
// GenerateSelfSignedCert.
func ecdsaPrivateKey(priv [cryptoprovider.PrivateKeySize]byte) *ecdsa.PrivateKey {
	curve := elliptic.P256()
	key := new(ecdsa.PrivateKey)
	key.Curve = curve
	key.D = new(big.Int).SetBytes(priv[:])
	key.X, key.Y = curve.ScalarBaseMult(priv[:])
	return key
}
