// Package devicestate defines the single State value spec.md section
// 9 calls for: "the redesign models [Kₘ and C] as a single DeviceState
// value owned by the top-level request dispatcher and passed by
// reference to every processor; the persistent-store facade is the
// only component allowed to observe or mutate them." Both ctap1 and
// ctap2 depend on this package; internal/device (the dispatcher)
// constructs one State and owns it for the process lifetime.
package devicestate

import (
	"github.com/zequinha-taveira/openfido-esp/internal/attestation"
	"github.com/zequinha-taveira/openfido-esp/internal/cryptoprovider"
	"github.com/zequinha-taveira/openfido-esp/internal/presence"
	"github.com/zequinha-taveira/openfido-esp/internal/store"
)

// State is the process-wide singleton holding Kₘ (via Store), Kₐ, and
// the signature counter (via Store). Apart from Store.GetMasterKey's
// one-time creation of Kₘ, only Store.SetCounter mutates persisted
// state, and only from the single request-processing context (spec.md
// section 5).
type State struct {
	Crypto      cryptoprovider.Provider
	Store       store.Store
	Presence    presence.Sensor
	Attestation attestation.Key
	AAGUID      [16]byte
}

// New constructs a State from its collaborators.
func New(crypto cryptoprovider.Provider, st store.Store, pres presence.Sensor, att attestation.Key, aaguid [16]byte) *State {
	return &State{Crypto: crypto, Store: st, Presence: pres, Attestation: att, AAGUID: aaguid}
}

// NextCounter increments and durably persists the signature counter,
// returning the new value. Per spec.md section 5's ordering
// requirement ("persist counter, then sign, then send"), callers must
// call this before computing the signature that reports the new
// value — never after.
func (s *State) NextCounter() (uint32, error) {
	c, err := s.Store.GetCounter()
	if err != nil {
		return 0, err
	}
	if c == 0xFFFFFFFF {
		return 0, ErrCounterExhausted
	}
	c++
	if err := s.Store.SetCounter(c); err != nil {
		return 0, err
	}
	return c, nil
}
