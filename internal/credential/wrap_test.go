package credential

import (
	"testing"

	"github.com/zequinha-taveira/openfido-esp/internal/cryptoprovider"
)

func testKeypair(t *testing.T, crypto cryptoprovider.Provider) [cryptoprovider.PrivateKeySize]byte {
	t.Helper()
	priv, _, err := crypto.P256Keygen()
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	return priv
}

func TestWrapUnwrapRoundTrip(t *testing.T) {
	crypto := cryptoprovider.NewSoftware()
	var km [32]byte
	copy(km[:], []byte("0123456789abcdef0123456789abcdef"))
	var rpIDHash [32]byte
	copy(rpIDHash[:], []byte("rp-id-hash-32-bytes-aaaaaaaaaaaa"))
	priv := testKeypair(t, crypto)

	id, err := Wrap(crypto, km, rpIDHash, priv)
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	if len(id) != IDSize {
		t.Fatalf("expected %d-byte id, got %d", IDSize, len(id))
	}

	got, err := Unwrap(crypto, km, rpIDHash, id[:])
	if err != nil {
		t.Fatalf("unwrap: %v", err)
	}
	if got != priv {
		t.Fatalf("unwrapped key mismatch")
	}
}

func TestUnwrapWrongRPFails(t *testing.T) {
	crypto := cryptoprovider.NewSoftware()
	var km [32]byte
	copy(km[:], []byte("0123456789abcdef0123456789abcdef"))
	var rpA, rpB [32]byte
	copy(rpA[:], []byte("rp-a-32-bytes-aaaaaaaaaaaaaaaaaa"))
	copy(rpB[:], []byte("rp-b-32-bytes-bbbbbbbbbbbbbbbbbb"))
	priv := testKeypair(t, crypto)

	id, err := Wrap(crypto, km, rpA, priv)
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	if _, err := Unwrap(crypto, km, rpB, id[:]); err != ErrInvalidCredential {
		t.Fatalf("expected ErrInvalidCredential for wrong RP, got %v", err)
	}
}

func TestUnwrapBitFlipFails(t *testing.T) {
	crypto := cryptoprovider.NewSoftware()
	var km [32]byte
	copy(km[:], []byte("0123456789abcdef0123456789abcdef"))
	var rpIDHash [32]byte
	copy(rpIDHash[:], []byte("rp-id-hash-32-bytes-aaaaaaaaaaaa"))
	priv := testKeypair(t, crypto)

	id, err := Wrap(crypto, km, rpIDHash, priv)
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}

	for i := 0; i < IDSize; i++ {
		flipped := id
		flipped[i] ^= 0x01
		if _, err := Unwrap(crypto, km, rpIDHash, flipped[:]); err != ErrInvalidCredential {
			t.Fatalf("byte %d: expected ErrInvalidCredential after bit flip, got %v", i, err)
		}
	}
}

func TestUnwrapWrongLengthFails(t *testing.T) {
	crypto := cryptoprovider.NewSoftware()
	var km [32]byte
	var rpIDHash [32]byte
	if _, err := Unwrap(crypto, km, rpIDHash, make([]byte, 59)); err != ErrInvalidCredential {
		t.Fatalf("expected ErrInvalidCredential for short id, got %v", err)
	}
}
