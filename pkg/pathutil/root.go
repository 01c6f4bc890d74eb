package pathutil

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// RootKind identifies how a RootedGlob or SinglePath's base directory should
// be resolved relative to a monitor's filesystem root.
type RootKind uint8

const (
	// RootRelative indicates that the path is relative to the monitor's
	// filesystem root.
	RootRelative RootKind = iota
	// RootAbsolute indicates that the path is already absolute.
	RootAbsolute
	// RootHome indicates that the path is relative to a user's home
	// directory (the current user's, unless Username is set).
	RootHome
	// RootDrive indicates that the path is rooted at a drive letter. On
	// POSIX platforms, where there is no drive concept, this resolves
	// identically to RootAbsolute and the Drive field is ignored; this is a
	// deliberate simplification, not an oversight.
	RootDrive
)

// FilePathRoot describes where a declared path or rooted glob is anchored.
type FilePathRoot struct {
	// Kind selects the resolution strategy.
	Kind RootKind
	// Username is consulted only when Kind is RootHome and is non-empty; it
	// names the user whose home directory should be used instead of the
	// current user's.
	Username string
	// Drive is consulted only when Kind is RootDrive; it names the drive
	// letter (e.g. "C"). It is ignored on POSIX platforms.
	Drive string
}

// Resolve computes the absolute directory that a FilePathRoot refers to,
// given the monitor's filesystem root (used to resolve RootRelative).
func (r FilePathRoot) Resolve(monitorRoot string) (string, error) {
	switch r.Kind {
	case RootRelative:
		if !filepath.IsAbs(monitorRoot) {
			return "", errors.New("monitor root must be absolute")
		}
		return filepath.Clean(monitorRoot), nil
	case RootAbsolute:
		return filepath.Clean("/"), nil
	case RootHome:
		home, err := userHomeDirectory(r.Username)
		if err != nil {
			return "", errors.Wrap(err, "unable to resolve home directory")
		}
		return filepath.Clean(home), nil
	case RootDrive:
		// No drive concept on POSIX; treat as filesystem-root-absolute.
		// Drive is ignored.
		return filepath.Clean("/"), nil
	default:
		return "", errors.Errorf("unknown root kind: %d", r.Kind)
	}
}

// Normalize cleans path, expanding a leading ~ or ~user, and returns an
// absolute path.
func Normalize(path string) (string, error) {
	expanded, err := tildeExpand(path)
	if err != nil {
		return "", errors.Wrap(err, "unable to perform tilde expansion")
	}
	absolute, err := filepath.Abs(expanded)
	if err != nil {
		return "", errors.Wrap(err, "unable to compute absolute path")
	}
	return absolute, nil
}

// tildeExpand expands a leading ~/ or ~username/ prefix.
func tildeExpand(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}

	separatorIndex := strings.IndexAny(path, "/\\")

	var username, remaining string
	if separatorIndex > 0 {
		username = path[1:separatorIndex]
		remaining = path[separatorIndex+1:]
	} else if separatorIndex < 0 {
		username = path[1:]
	}

	home, err := userHomeDirectory(username)
	if err != nil {
		return "", err
	}
	return filepath.Join(home, remaining), nil
}
