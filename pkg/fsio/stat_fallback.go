//go:build windows

package fsio

import (
	"os"
	"time"
)

// statModTime extracts a modification time from a FileInfo. On Windows the
// os package's own ModTime() already carries full precision, so no extra
// syscall is needed.
func statModTime(info os.FileInfo) time.Time {
	return info.ModTime()
}
