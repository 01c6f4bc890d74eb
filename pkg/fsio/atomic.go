// Package fsio implements the filesystem-facing primitives a file monitor
// needs: modification time and existence probes, directory listing,
// content hashing (via pkg/hashing), and atomic file writes. Every call
// blocks synchronously on the underlying I/O.
package fsio

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/monocle-build/filemonitor/pkg/must"
)

const (
	// TemporaryNamePrefix is the file name prefix used for intermediate
	// files created during atomic writes.
	TemporaryNamePrefix = ".filemonitor-temporary-"
)

// WriteFileAtomic writes data to path by writing to a temporary file in the
// same directory and renaming it into place, so that a reader never
// observes a partially written file and a crash mid-write never corrupts
// the previous contents.
func WriteFileAtomic(path string, data []byte, permissions os.FileMode) error {
	directory := filepath.Dir(path)

	temporary, err := os.CreateTemp(directory, TemporaryNamePrefix)
	if err != nil {
		return errors.Wrap(err, "unable to create temporary file")
	}

	if _, err := temporary.Write(data); err != nil {
		must.Close(temporary, nil)
		must.OSRemove(temporary.Name(), nil)
		return errors.Wrap(err, "unable to write data to temporary file")
	}

	if err := temporary.Close(); err != nil {
		must.OSRemove(temporary.Name(), nil)
		return errors.Wrap(err, "unable to close temporary file")
	}

	if err := os.Chmod(temporary.Name(), permissions); err != nil {
		must.OSRemove(temporary.Name(), nil)
		return errors.Wrap(err, "unable to set temporary file permissions")
	}

	if err := os.Rename(temporary.Name(), path); err != nil {
		must.OSRemove(temporary.Name(), nil)
		return errors.Wrap(err, "unable to rename temporary file into place")
	}

	return nil
}
