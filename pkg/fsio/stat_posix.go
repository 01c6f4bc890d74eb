//go:build !windows

package fsio

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// statModTime extracts a modification time from a FileInfo, reading the
// underlying POSIX stat_t's nanosecond-precision timestamp directly rather
// than trusting FileInfo.ModTime(), whose precision is not guaranteed by all
// implementations of the os package across platforms. Full precision here
// matters because begin-update timestamps are compared against mtimes
// captured moments earlier in the same build, where sub-second ordering can
// otherwise be lost.
func statModTime(info os.FileInfo) time.Time {
	if stat, ok := info.Sys().(*unix.Stat_t); ok {
		return time.Unix(int64(stat.Mtim.Sec), int64(stat.Mtim.Nsec))
	}
	return info.ModTime()
}
