package fsio

import (
	"os"

	"github.com/pkg/errors"
)

// ReadDirNames returns the base names of path's directory entries, excluding
// "." and "..", implementing the get-directory-contents collaborator.
func ReadDirNames(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read directory contents")
	}
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Name()
	}
	return names, nil
}

// DirEntry is a single directory listing entry with its type, used where a
// caller needs to distinguish files from subdirectories without a second
// stat call per entry.
type DirEntry struct {
	Name  string
	IsDir bool
}

// ReadDirEntries returns path's directory entries with their types,
// implementing the get-directory-contents collaborator for callers that
// need to partition entries by kind (the glob-matching builder and prober).
func ReadDirEntries(path string) ([]DirEntry, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read directory contents")
	}
	result := make([]DirEntry, len(entries))
	for i, entry := range entries {
		result[i] = DirEntry{Name: entry.Name(), IsDir: entry.IsDir()}
	}
	return result, nil
}
