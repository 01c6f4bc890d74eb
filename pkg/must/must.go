// Package must provides helpers for best-effort cleanup operations whose
// errors should be logged rather than propagated or allowed to mask a
// primary error already in flight.
package must

import (
	"io"
	"os"

	"github.com/monocle-build/filemonitor/pkg/logging"
)

// Close closes c, logging a warning on failure.
func Close(c io.Closer, logger *logging.Logger) {
	if err := c.Close(); err != nil {
		logger.Warnf("unable to close: %s", err.Error())
	}
}

// OSRemove removes the named file, logging a warning on failure.
func OSRemove(name string, logger *logging.Logger) {
	if err := os.Remove(name); err != nil {
		logger.Warnf("unable to remove '%s': %s", name, err.Error())
	}
}
