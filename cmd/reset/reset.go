package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zequinha-taveira/openfido-esp/internal/store"
)

// resetStore removes the persisted master-key and counter files under
// baseDir. Missing files are not an error: a device that was never
// provisioned is already in its factory state.
func resetStore(baseDir string) error {
	for _, name := range []string{store.MasterKeyFileName, store.CounterFileName} {
		path := filepath.Join(baseDir, name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", path, err)
		}
	}
	return nil
}
