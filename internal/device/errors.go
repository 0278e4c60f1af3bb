package device

import "fmt"

// FatalError reports an internal bug caught by Dispatcher's panic
// recovery (malformed input that slipped past a processor's own
// validation, an impossible decoder state). It always maps to a
// generic HID ERROR report and channel reset at the transport layer;
// Dispatcher never calls the store's mutating methods once one of
// these is in flight, so a bug here can never corrupt Kₘ or the
// signature counter.
type FatalError struct {
	Cmd   byte
	Cause any
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("device: command 0x%02x panicked: %v", e.Cmd, e.Cause)
}
