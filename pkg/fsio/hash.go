package fsio

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/monocle-build/filemonitor/pkg/hashing"
)

// HashFile computes the content hash of the file at path using algorithm.
// The file is opened, fully consumed, and closed before returning.
func HashFile(path string, algorithm hashing.Algorithm) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open file for hashing")
	}
	defer file.Close()

	hasher := algorithm.Factory()()
	if _, err := io.Copy(hasher, file); err != nil {
		return nil, errors.Wrap(err, "unable to read file for hashing")
	}

	return hasher.Sum(nil), nil
}
