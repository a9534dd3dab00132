package sound

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Writable creates dir if needed and checks that files can be written to it.
func Writable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := unix.Access(dir, unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf("output dir %s is not writable: %w", dir, err)
	}
	return nil
}
