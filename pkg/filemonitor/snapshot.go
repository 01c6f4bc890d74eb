package filemonitor

import (
	"time"

	"github.com/monocle-build/filemonitor/pkg/filemonitor/glob"
	"github.com/monocle-build/filemonitor/pkg/pathutil"
)

// StatusKind identifies which FileStatus variant is in play.
type StatusKind uint8

const (
	// StatusFileExists records that a file is present; only existence is
	// checked.
	StatusFileExists StatusKind = iota
	// StatusFileModTime records that a file is present and tracks its
	// modification time.
	StatusFileModTime
	// StatusFileHashed records that a file is present and tracks its
	// modification time and content hash.
	StatusFileHashed
	// StatusDirExists records that a directory is present; only existence
	// is checked.
	StatusDirExists
	// StatusDirModTime records that a directory is present and tracks its
	// modification time.
	StatusDirModTime
	// StatusNonExistent records that neither a file nor a directory is
	// present, and that is the expected (permitted) state.
	StatusNonExistent
	// StatusAlreadyChanged marks a path as already stale; the next probe
	// unconditionally reports a change for it.
	StatusAlreadyChanged
)

// FileStatus records what the snapshot builder observed (or was told to
// assume) about a single monitored file or directory.
type FileStatus struct {
	Kind    StatusKind
	ModTime time.Time
	Hash    []byte
}

// AlreadyChanged returns the sentinel status that forces the next probe of
// this path to report a change, regardless of filesystem state.
func AlreadyChanged() FileStatus {
	return FileStatus{Kind: StatusAlreadyChanged}
}

// MonitorStateFile is the snapshot of a single declared SinglePath.
type MonitorStateFile struct {
	FileKind FileKind
	DirKind  DirKind
	Path     string
	Status   FileStatus
}

// GlobStateKind identifies which GlobState variant is in play.
type GlobStateKind uint8

const (
	// GlobStateKindDirs records the state of a GlobDir node: the
	// subdirectories matching Pieces, each recursed into via Sub.
	GlobStateKindDirs GlobStateKind = iota
	// GlobStateKindFiles records the state of a GlobFile node: the files
	// matching Pieces.
	GlobStateKindFiles
	// GlobStateKindDirTrailing records a GlobDirTrailing leaf.
	GlobStateKindDirTrailing
)

// GlobChildDir is a single matched subdirectory within a GlobStateKindDirs
// node, paired with its recursively-built state.
type GlobChildDir struct {
	Name  string
	State GlobState
}

// GlobFileEntry is a single matched file within a GlobStateKindFiles node,
// paired with its FileStatus.
type GlobFileEntry struct {
	Name   string
	Status FileStatus
}

// GlobState is a node in the snapshot of a rooted glob tree, mirroring the
// shape of the Glob tree that produced it (GlobDir -> GlobStateKindDirs,
// GlobFile -> GlobStateKindFiles, GlobDirTrailing -> GlobStateKindDirTrailing).
//
// Children and Entries are always sorted ascending by Name; duplicates are
// permitted (bag semantics) but the builder never produces them.
type GlobState struct {
	Kind GlobStateKind

	// Pieces is the pattern used to match entries at this level. Unused for
	// GlobStateKindDirTrailing.
	Pieces glob.Pieces
	// Sub is the declared sub-glob used to recurse into each matched
	// subdirectory. Only meaningful for GlobStateKindDirs; stored here
	// (rather than reconstructed from Children, which may be empty) so that
	// the original Glob tree can always be losslessly reconstructed and so
	// that newly-appeared subdirectories can be recursed into during a
	// probe.
	Sub Glob

	// DirModTime is the modification time of the directory this node
	// describes, as of the snapshot (or most recent probe that updated it).
	// It is recorded for GlobStateKindDirs and GlobStateKindDirTrailing
	// nodes; GlobStateKindFiles nodes leave it zero.
	DirModTime time.Time

	// Children holds matched subdirectories, for GlobStateKindDirs.
	Children []GlobChildDir
	// Entries holds matched files, for GlobStateKindFiles.
	Entries []GlobFileEntry
}

// ToGlob reconstructs the declared Glob node that produced this state.
func (s GlobState) ToGlob() Glob {
	switch s.Kind {
	case GlobStateKindDirs:
		return GlobDir{Pieces: s.Pieces, Sub: s.Sub}
	case GlobStateKindFiles:
		return GlobFile{Pieces: s.Pieces}
	case GlobStateKindDirTrailing:
		return GlobDirTrailing{}
	default:
		panic("unknown glob state kind")
	}
}

// MonitorStateGlob is the snapshot of a single declared GlobPath.
type MonitorStateGlob struct {
	FileKind FileKind
	DirKind  DirKind
	Root     pathutil.FilePathRoot
	State    GlobState
}

// FileSet is a complete snapshot: the filesystem state of every declared
// monitor path at some instant.
type FileSet struct {
	Files []MonitorStateFile
	Globs []MonitorStateGlob
}

// DeclaredPaths reconstructs the original []MonitorPath that produced this
// snapshot.
func (s FileSet) DeclaredPaths() []MonitorPath {
	paths := make([]MonitorPath, 0, len(s.Files)+len(s.Globs))
	for _, f := range s.Files {
		paths = append(paths, SinglePath{FileKind: f.FileKind, DirKind: f.DirKind, Path: f.Path})
	}
	for _, g := range s.Globs {
		paths = append(paths, GlobPath{
			FileKind: g.FileKind,
			DirKind:  g.DirKind,
			Root:     RootedGlob{Root: g.Root, Glob: g.State.ToGlob()},
		})
	}
	return paths
}
