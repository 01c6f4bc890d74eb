package fsio

import (
	"os"
	"time"
)

// ModTime returns the modification time of the filesystem entry at path. It
// follows symbolic links, consistent with FileExists/DirExists: symbolic
// links are not given any special treatment.
func ModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return statModTime(info), nil
}

// FileExists reports whether path exists and is a regular file. It follows
// symbolic links and never returns an error: any stat failure (including
// permission errors) is treated as non-existence, matching the
// does-file-exist collaborator's "never raise" contract.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// DirExists reports whether path exists and is a directory. It follows
// symbolic links and never returns an error, matching the does-dir-exist
// collaborator's "never raise" contract.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Stat is a thin wrapper returning both existence flags and the entry's
// modification time in a single syscall, used by the snapshot builder where
// a path must be probed for both possibilities at once.
func Stat(path string) (isFile, isDir bool, modTime time.Time, err error) {
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return false, false, time.Time{}, nil
		}
		return false, false, time.Time{}, statErr
	}
	if info.IsDir() {
		return false, true, statModTime(info), nil
	}
	return true, false, statModTime(info), nil
}
