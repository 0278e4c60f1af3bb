// Package credential implements the credential-wrapping scheme from
// spec.md section 4.4: the device is stateless with respect to
// registered credentials because the private key lives inside the
// 60-byte credential ID the relying party stores and presents back.
package credential

import (
	"errors"
	"fmt"

	"github.com/zequinha-taveira/openfido-esp/internal/cryptoprovider"
)

// IDSize is the fixed length of a credential ID: IV(12) || CT(32) || TAG(16).
const IDSize = 60

const (
	ivSize  = 12
	ctSize  = 32
	tagSize = 16
)

// ErrInvalidCredential is returned by Unwrap for any failure mode:
// wrong length, wrong RP, corrupted IV, or corrupted ciphertext. The
// caller cannot and must not distinguish these, per spec.md section
// 4.4 ("a single opaque error ... so that an attacker cannot probe
// the reason").
var ErrInvalidCredential = errors.New("credential: invalid credential id")

// Wrap encrypts priv (a P-256 scalar) under Kₘ, binding it to
// rpIDHash via AAD, and returns the 60-byte credential ID.
func Wrap(crypto cryptoprovider.Provider, km [32]byte, rpIDHash [32]byte, priv [cryptoprovider.PrivateKeySize]byte) ([IDSize]byte, error) {
	var out [IDSize]byte
	ivBytes, err := crypto.RNG(ivSize)
	if err != nil {
		return out, fmt.Errorf("credential: wrap: %w", err)
	}
	var iv [ivSize]byte
	copy(iv[:], ivBytes)

	ct, tag, err := crypto.AESGCMEncrypt(km, iv, rpIDHash[:], priv[:])
	if err != nil {
		return out, fmt.Errorf("credential: wrap: %w", err)
	}
	if len(ct) != ctSize {
		return out, fmt.Errorf("credential: wrap: unexpected ciphertext length %d", len(ct))
	}

	copy(out[0:ivSize], iv[:])
	copy(out[ivSize:ivSize+ctSize], ct)
	copy(out[ivSize+ctSize:], tag[:])
	return out, nil
}

// Unwrap recovers the private key from a credential ID. It succeeds
// if and only if km and rpIDHash match those used at Wrap time
// (spec.md section 3's invariant #3); any other condition, including
// a malformed or wrong-length id, collapses to ErrInvalidCredential.
func Unwrap(crypto cryptoprovider.Provider, km [32]byte, rpIDHash [32]byte, id []byte) ([cryptoprovider.PrivateKeySize]byte, error) {
	var priv [cryptoprovider.PrivateKeySize]byte
	if len(id) != IDSize {
		return priv, ErrInvalidCredential
	}

	var iv [ivSize]byte
	var tag [tagSize]byte
	copy(iv[:], id[0:ivSize])
	ct := id[ivSize : ivSize+ctSize]
	copy(tag[:], id[ivSize+ctSize:])

	pt, err := crypto.AESGCMDecrypt(km, iv, rpIDHash[:], ct, tag)
	if err != nil {
		return priv, ErrInvalidCredential
	}
	if len(pt) != cryptoprovider.PrivateKeySize {
		return priv, ErrInvalidCredential
	}
	copy(priv[:], pt)
	return priv, nil
}
