package store

import (
	"testing"

	"github.com/zequinha-taveira/openfido-esp/internal/cryptoprovider"
)

func TestFileStoreMasterKeyGeneratedOnceAndStable(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir, cryptoprovider.NewSoftware())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	km1, err := s.GetMasterKey()
	if err != nil {
		t.Fatalf("get master key: %v", err)
	}

	s2, err := NewFileStore(dir, cryptoprovider.NewSoftware())
	if err != nil {
		t.Fatalf("new file store 2: %v", err)
	}
	km2, err := s2.GetMasterKey()
	if err != nil {
		t.Fatalf("get master key 2: %v", err)
	}

	if km1 != km2 {
		t.Fatalf("master key changed across reopen: %x != %x", km1, km2)
	}
}

func TestFileStoreCounterMonotonicAndPersisted(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir, cryptoprovider.NewSoftware())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	c, err := s.GetCounter()
	if err != nil {
		t.Fatalf("get counter: %v", err)
	}
	if c != 0 {
		t.Fatalf("expected initial counter 0, got %d", c)
	}

	for i := uint32(1); i <= 5; i++ {
		if err := s.SetCounter(i); err != nil {
			t.Fatalf("set counter %d: %v", i, err)
		}
	}

	s2, err := NewFileStore(dir, cryptoprovider.NewSoftware())
	if err != nil {
		t.Fatalf("new file store 2: %v", err)
	}
	got, err := s2.GetCounter()
	if err != nil {
		t.Fatalf("get counter 2: %v", err)
	}
	if got != 5 {
		t.Fatalf("counter did not survive simulated reboot: got %d, want 5", got)
	}
}
