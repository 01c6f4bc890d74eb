// Package filemonitor implements a file-monitor cache: a mechanism by
// which an incremental build or command system decides whether a
// previously executed action's cached result can be reused, by tracking a
// declared set of filesystem paths for changes alongside an arbitrary
// caller-supplied key.
package filemonitor

import (
	"github.com/monocle-build/filemonitor/pkg/filemonitor/glob"
	"github.com/monocle-build/filemonitor/pkg/pathutil"
)

// FileKind specifies what should be checked about a file, if one is found
// at a monitored path.
type FileKind uint8

const (
	// FileNotExists requires that no file exist at the path.
	FileNotExists FileKind = iota
	// FileExistsKind requires only that a file exist at the path.
	FileExistsKind
	// FileModTimeKind checks the file's modification time.
	FileModTimeKind
	// FileHashedKind checks the file's modification time, and its content
	// hash if the modification time has changed.
	FileHashedKind
)

// DirKind specifies what should be checked about a directory, if one is
// found at a monitored path.
type DirKind uint8

const (
	// DirNotExists requires that no directory exist at the path.
	DirNotExists DirKind = iota
	// DirExistsKind requires only that a directory exist at the path.
	DirExistsKind
	// DirModTimeKind checks the directory's modification time.
	DirModTimeKind
)

// MonitorPath is a declared input to a monitor: either a single path or a
// rooted glob. It is implemented by SinglePath and GlobPath.
type MonitorPath interface {
	isMonitorPath()
}

// SinglePath declares a single filesystem path, relative to the monitor's
// filesystem root, that may legitimately be either a file or a directory.
type SinglePath struct {
	FileKind FileKind
	DirKind  DirKind
	Path     string
}

func (SinglePath) isMonitorPath() {}

// GlobPath declares a rooted glob pattern.
type GlobPath struct {
	FileKind FileKind
	DirKind  DirKind
	Root     RootedGlob
}

func (GlobPath) isMonitorPath() {}

// RootedGlob anchors a Glob tree at a FilePathRoot.
type RootedGlob struct {
	Root pathutil.FilePathRoot
	Glob Glob
}

// Glob is a node in a rooted glob tree. It is implemented by GlobDir,
// GlobFile, GlobDirTrailing, and GlobDirRecursive.
type Glob interface {
	isGlob()
}

// GlobDir matches subdirectories of the current directory whose basename
// matches Pieces, recursing into each with Sub.
type GlobDir struct {
	Pieces glob.Pieces
	Sub    Glob
}

func (GlobDir) isGlob() {}

// GlobFile matches files in the current directory whose basename matches
// Pieces. It is always a leaf.
type GlobFile struct {
	Pieces glob.Pieces
}

func (GlobFile) isGlob() {}

// GlobDirTrailing matches the containing directory itself (the trailing
// slash form, e.g. "build/"). It is always a leaf.
type GlobDirTrailing struct{}

func (GlobDirTrailing) isGlob() {}

// GlobDirRecursive represents a recursive "**" glob segment. It is not
// supported: the snapshot builder fails hard (ErrRecursiveGlobUnsupported)
// if it encounters one.
type GlobDirRecursive struct{}

func (GlobDirRecursive) isGlob() {}
