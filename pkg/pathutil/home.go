// Package pathutil implements the get-file-path-root-directory collaborator:
// resolution of a declared monitor path's FilePathRoot (relative, absolute,
// home, or drive-rooted) against a contextual base directory.
package pathutil

import (
	"os"
	"os/user"

	"github.com/pkg/errors"
)

// HomeDirectory is the cached path to the current user's home directory. It
// is computed once at init time, since repeated home-directory lookups are
// surprisingly expensive on some platforms.
var HomeDirectory string

func init() {
	if currentUser, err := user.Current(); err != nil {
		panic(errors.Wrap(err, "unable to look up current user"))
	} else if currentUser.HomeDir == "" {
		panic(errors.New("unable to determine home directory"))
	} else {
		HomeDirectory = currentUser.HomeDir
	}
}

// userHomeDirectory resolves the home directory for an explicit username, or
// the current user's home directory if username is empty.
func userHomeDirectory(username string) (string, error) {
	if username == "" {
		if h, err := os.UserHomeDir(); err != nil {
			return "", errors.Wrap(err, "unable to compute home directory")
		} else {
			return h, nil
		}
	}
	u, err := user.Lookup(username)
	if err != nil {
		return "", errors.Wrap(err, "unable to look up user")
	}
	return u.HomeDir, nil
}
