package attestation

import (
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"time"
)

// GenerateSelfSignedCert produces a self-signed placeholder
// certificate for the given attestation private key, per spec.md
// section 3: "Placeholder cert permitted; a real certificate is
// preferred." Real deployments provision a unique per-device
// certificate chain; this reference design signs its own public key,
// matching the "dummy certificate" tpm-fido/ctapkey-style reference
// authenticators use for their attestation statements.
func GenerateSelfSignedCert(k Key, commonName string) ([]byte, error) {
	priv := ecdsaPrivateKey(k.Private)

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("attestation: serial number: %w", err)
	}

	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: commonName, Organization: []string{"OpenFIDO-ESP reference design"}},
		NotBefore:    time.Unix(0, 0).UTC(),
		NotAfter:     time.Unix(0, 0).UTC().AddDate(30, 0, 0),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	if err != nil {
		return nil, fmt.Errorf("attestation: create certificate: %w", err)
	}
	return der, nil
}
