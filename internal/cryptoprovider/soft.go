package cryptoprovider

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"math/big"
)

// Software is a software-only Provider for development, simulation, and
// CI. It is not a substitute for a hardware secure element in a
// production device; see package doc.
type Software struct{}

// NewSoftware returns a ready-to-use software crypto provider.
func NewSoftware() *Software {
	return &Software{}
}

func (Software) RNG(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return nil, fmt.Errorf("cryptoprovider: rng: %w", err)
	}
	return buf, nil
}

func (Software) SHA256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

func (Software) P256Keygen() (priv [PrivateKeySize]byte, pub [PublicKeySize]byte, err error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return priv, pub, fmt.Errorf("cryptoprovider: p256 keygen: %w", err)
	}
	d := key.D.Bytes()
	copy(priv[PrivateKeySize-len(d):], d)

	x := key.X.Bytes()
	y := key.Y.Bytes()
	pub[0] = 0x04
	copy(pub[1+(32-len(x)):33], x)
	copy(pub[33+(32-len(y)):65], y)
	return priv, pub, nil
}

func (Software) P256Sign(priv [PrivateKeySize]byte, digest [32]byte) ([]byte, error) {
	key := new(ecdsa.PrivateKey)
	key.Curve = elliptic.P256()
	key.D = new(big.Int).SetBytes(priv[:])
	key.X, key.Y = elliptic.P256().ScalarBaseMult(priv[:])

	sig, err := ecdsa.SignASN1(rand.Reader, key, digest[:])
	if err != nil {
		return nil, fmt.Errorf("cryptoprovider: p256 sign: %w", err)
	}
	return sig, nil
}

func (Software) AESGCMEncrypt(key [32]byte, iv [12]byte, aad, pt []byte) ([]byte, [16]byte, error) {
	var tag [16]byte
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, tag, fmt.Errorf("cryptoprovider: aes-gcm: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, len(iv))
	if err != nil {
		return nil, tag, fmt.Errorf("cryptoprovider: aes-gcm: %w", err)
	}
	sealed := gcm.Seal(nil, iv[:], pt, aad)
	ct := sealed[:len(sealed)-gcm.Overhead()]
	copy(tag[:], sealed[len(sealed)-gcm.Overhead():])
	return ct, tag, nil
}

func (Software) AESGCMDecrypt(key [32]byte, iv [12]byte, aad, ct []byte, tag [16]byte) ([]byte, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("cryptoprovider: aes-gcm: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, len(iv))
	if err != nil {
		return nil, fmt.Errorf("cryptoprovider: aes-gcm: %w", err)
	}
	sealed := make([]byte, 0, len(ct)+len(tag))
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag[:]...)
	pt, err := gcm.Open(nil, iv[:], sealed, aad)
	if err != nil {
		return nil, ErrAuthTagMismatch
	}
	return pt, nil
}

