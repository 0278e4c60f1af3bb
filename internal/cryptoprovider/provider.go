// Package cryptoprovider abstracts the cryptographic primitives the
// authenticator core consumes, per spec.md section 4.1. Firmware ports
// of this module replace Software with an implementation backed by the
// board's secure element or crypto accelerator; the core never imports
// crypto/* directly so that swap is confined to this package.
package cryptoprovider

import "errors"

// ErrAuthTagMismatch is returned by AESGCMDecrypt when GCM tag verification
// fails. Callers must treat this as an opaque credential mismatch and
// must not leak timing information distinguishing it from any other
// decrypt failure.
var ErrAuthTagMismatch = errors.New("cryptoprovider: authentication tag mismatch")

// PublicKeySize is the length of an uncompressed P-256 public key
// (0x04 || X(32) || Y(32)).
const PublicKeySize = 65

// PrivateKeySize is the length of a P-256 scalar.
const PrivateKeySize = 32

// Provider is the crypto facade spec.md section 4.1 describes.
type Provider interface {
	// RNG returns n cryptographically secure random bytes.
	RNG(n int) ([]byte, error)

	// SHA256 returns the 32-byte digest of data.
	SHA256(data []byte) [32]byte

	// P256Keygen generates a fresh ECDSA P-256 keypair. pub is
	// uncompressed (pub[0] == 0x04).
	P256Keygen() (priv [PrivateKeySize]byte, pub [PublicKeySize]byte, err error)

	// P256Sign signs a 32-byte digest with priv, returning a
	// DER-encoded ECDSA signature.
	P256Sign(priv [PrivateKeySize]byte, digest [32]byte) ([]byte, error)

	// AESGCMEncrypt encrypts pt under a 256-bit key with the given
	// 12-byte IV and AAD, returning ciphertext and a 16-byte tag.
	AESGCMEncrypt(key [32]byte, iv [12]byte, aad, pt []byte) (ct []byte, tag [16]byte, err error)

	// AESGCMDecrypt authenticates and decrypts ct. Returns
	// ErrAuthTagMismatch on tag verification failure.
	AESGCMDecrypt(key [32]byte, iv [12]byte, aad, ct []byte, tag [16]byte) (pt []byte, err error)
}
