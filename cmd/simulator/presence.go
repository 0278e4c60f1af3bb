package main

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/zequinha-taveira/openfido-esp/internal/presence"
)

// TermSensor implements presence.Sensor by putting stdin into raw mode
// and treating any single keypress as the user pressing the device's
// button, the same terminal-driving approach the teacher's keyswap
// tool uses for its menu reader, repurposed here for a one-shot
// presence signal instead of a navigable menu.
type TermSensor struct {
	Timeout time.Duration
}

// NewTermSensor returns a TermSensor with spec.md section 5's default
// presence timeout.
func NewTermSensor() *TermSensor {
	return &TermSensor{Timeout: presence.DefaultTimeout}
}

// Await blocks until stdin receives a byte or Timeout elapses,
// invoking keepalive every presence.KeepaliveInterval while waiting.
func (s *TermSensor) Await(keepalive func()) bool {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		// Not an interactive terminal (e.g. piped stdin in a test
		// harness); fall back to reporting presence immediately rather
		// than hanging.
		return true
	}
	defer term.Restore(fd, oldState)

	fmt.Print("\r\nPress any key to confirm presence... ")

	pressed := make(chan bool, 1)
	go func() {
		buf := make([]byte, 1)
		if _, err := os.Stdin.Read(buf); err == nil {
			pressed <- true
		}
	}()

	deadline := time.Now().Add(s.Timeout)
	ticker := time.NewTicker(presence.KeepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-pressed:
			fmt.Print("\r\n")
			return true
		case <-ticker.C:
			if keepalive != nil {
				keepalive()
			}
			if time.Now().After(deadline) {
				fmt.Print("\r\ntimed out waiting for presence\r\n")
				return false
			}
		}
	}
}
