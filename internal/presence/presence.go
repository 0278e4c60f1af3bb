// Package presence abstracts the user-presence (button) primitive
// spec.md section 4 requires: "board glue" (LED indication, button
// sampling) is out of scope per spec.md section 1, but the core needs
// an interface boundary to call across.
package presence

import "time"

// DefaultTimeout is the spec.md section 5 bounded presence-wait
// window ("e.g., 30 seconds").
const DefaultTimeout = 30 * time.Second

// KeepaliveInterval is how often the core must emit a HID KEEPALIVE
// report while spin-polling for presence (spec.md section 5, "every
// ~100 ms").
const KeepaliveInterval = 100 * time.Millisecond

// Sensor reports whether a human has confirmed presence, without
// blocking the host: it returns immediately if the button is already
// pressed, or spin-polls up to Timeout while invoking keepalive at
// KeepaliveInterval so the caller can service HID keep-alives
// (spec.md section 5).
type Sensor interface {
	Await(keepalive func()) bool
}

// AlwaysPresent is a Sensor that reports presence immediately. Useful
// for the non-interactive simulator and for tests that do not exercise
// the presence timeout.
type AlwaysPresent struct{}

func (AlwaysPresent) Await(keepalive func()) bool { return true }

// NeverPresent is a Sensor that always denies presence immediately,
// for exercising SW_CONDITIONS_NOT_SATISFIED / CTAP2_ERR_OPERATION_DENIED paths in tests.
type NeverPresent struct{}

func (NeverPresent) Await(keepalive func()) bool { return false }
