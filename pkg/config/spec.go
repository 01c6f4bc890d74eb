// Package config implements declarative loading of a monitor's declared
// paths from a YAML manifest, and of environment overrides from an
// optional .env file, for use by cmd/filemonitor. The core
// pkg/filemonitor library remains manifest-format-agnostic; this package
// is purely additive tooling around it.
package config

import (
	"github.com/pkg/errors"

	"github.com/monocle-build/filemonitor/pkg/encoding"
	"github.com/monocle-build/filemonitor/pkg/filemonitor"
	"github.com/monocle-build/filemonitor/pkg/filemonitor/glob"
	"github.com/monocle-build/filemonitor/pkg/hashing"
	"github.com/monocle-build/filemonitor/pkg/pathutil"
)

// RootSpec is the YAML representation of a pathutil.FilePathRoot.
type RootSpec struct {
	// Kind is one of "relative" (default), "absolute", "home", or "drive".
	Kind     string `yaml:"kind,omitempty"`
	Username string `yaml:"username,omitempty"`
	Drive    string `yaml:"drive,omitempty"`
}

// toFilePathRoot converts a RootSpec into a pathutil.FilePathRoot.
func (r RootSpec) toFilePathRoot() (pathutil.FilePathRoot, error) {
	switch r.Kind {
	case "", "relative":
		return pathutil.FilePathRoot{Kind: pathutil.RootRelative}, nil
	case "absolute":
		return pathutil.FilePathRoot{Kind: pathutil.RootAbsolute}, nil
	case "home":
		return pathutil.FilePathRoot{Kind: pathutil.RootHome, Username: r.Username}, nil
	case "drive":
		return pathutil.FilePathRoot{Kind: pathutil.RootDrive, Drive: r.Drive}, nil
	default:
		return pathutil.FilePathRoot{}, errors.Errorf("unknown root kind %q", r.Kind)
	}
}

// GlobSpec is the YAML representation of a rooted glob tree. Dirs is a
// sequence of single-path-component patterns applied in order (each
// matching subdirectories to recurse into); the tree terminates in
// exactly one of File (a GlobFile leaf) or Trailing (a GlobDirTrailing
// leaf).
type GlobSpec struct {
	Root     RootSpec `yaml:"root,omitempty"`
	Dirs     []string `yaml:"dirs,omitempty"`
	File     string   `yaml:"file,omitempty"`
	Trailing bool     `yaml:"trailing,omitempty"`
}

// toRootedGlob converts a GlobSpec into a filemonitor.RootedGlob.
func (g GlobSpec) toRootedGlob() (filemonitor.RootedGlob, error) {
	root, err := g.Root.toFilePathRoot()
	if err != nil {
		return filemonitor.RootedGlob{}, err
	}

	var leaf filemonitor.Glob
	switch {
	case g.Trailing:
		leaf = filemonitor.GlobDirTrailing{}
	case g.File != "":
		pieces, err := glob.NewPieces(g.File)
		if err != nil {
			return filemonitor.RootedGlob{}, errors.Wrap(err, "invalid file pattern")
		}
		leaf = filemonitor.GlobFile{Pieces: pieces}
	default:
		return filemonitor.RootedGlob{}, errors.New("glob must specify either file or trailing")
	}

	tree := leaf
	for i := len(g.Dirs) - 1; i >= 0; i-- {
		pieces, err := glob.NewPieces(g.Dirs[i])
		if err != nil {
			return filemonitor.RootedGlob{}, errors.Wrapf(err, "invalid directory pattern %q", g.Dirs[i])
		}
		tree = filemonitor.GlobDir{Pieces: pieces, Sub: tree}
	}

	return filemonitor.RootedGlob{Root: root, Glob: tree}, nil
}

// PathSpec is the YAML representation of a single declared monitor path.
// Exactly one of Path or Glob should be set.
type PathSpec struct {
	Path string    `yaml:"path,omitempty"`
	Glob *GlobSpec `yaml:"glob,omitempty"`

	// File is one of "notexists", "exists", "modtime", or "hashed"
	// (default "exists").
	File string `yaml:"file,omitempty"`
	// Dir is one of "notexists", "exists", or "modtime" (default
	// "exists").
	Dir string `yaml:"dir,omitempty"`
}

func parseFileKind(value string) (filemonitor.FileKind, error) {
	switch value {
	case "", "exists":
		return filemonitor.FileExistsKind, nil
	case "notexists":
		return filemonitor.FileNotExists, nil
	case "modtime":
		return filemonitor.FileModTimeKind, nil
	case "hashed":
		return filemonitor.FileHashedKind, nil
	default:
		return 0, errors.Errorf("unknown file kind %q", value)
	}
}

func parseDirKind(value string) (filemonitor.DirKind, error) {
	switch value {
	case "", "exists":
		return filemonitor.DirExistsKind, nil
	case "notexists":
		return filemonitor.DirNotExists, nil
	case "modtime":
		return filemonitor.DirModTimeKind, nil
	default:
		return 0, errors.Errorf("unknown directory kind %q", value)
	}
}

// ToMonitorPath converts a PathSpec into a filemonitor.MonitorPath.
func (p PathSpec) ToMonitorPath() (filemonitor.MonitorPath, error) {
	fileKind, err := parseFileKind(p.File)
	if err != nil {
		return nil, err
	}
	dirKind, err := parseDirKind(p.Dir)
	if err != nil {
		return nil, err
	}

	switch {
	case p.Glob != nil:
		rooted, err := p.Glob.toRootedGlob()
		if err != nil {
			return nil, err
		}
		return filemonitor.GlobPath{FileKind: fileKind, DirKind: dirKind, Root: rooted}, nil
	case p.Path != "":
		return filemonitor.SinglePath{FileKind: fileKind, DirKind: dirKind, Path: p.Path}, nil
	default:
		return nil, errors.New("path spec must set either path or glob")
	}
}

// Manifest is the top-level YAML document loaded by cmd/filemonitor: the
// declared monitor paths plus the cache and hashing settings that govern
// how they are checked.
type Manifest struct {
	// CacheFile is the path (relative to the manifest's directory, unless
	// absolute) where the monitor's cache file is persisted.
	CacheFile string `yaml:"cacheFile"`
	// HashAlgorithm selects the content-hashing algorithm used for
	// FileHashedKind paths.
	HashAlgorithm hashing.Algorithm `yaml:"hashAlgorithm,omitempty"`
	// Paths is the declared set of monitor paths.
	Paths []PathSpec `yaml:"paths"`
}

// MonitorPaths converts every PathSpec in the manifest into a
// filemonitor.MonitorPath.
func (m Manifest) MonitorPaths() ([]filemonitor.MonitorPath, error) {
	paths := make([]filemonitor.MonitorPath, len(m.Paths))
	for i, spec := range m.Paths {
		path, err := spec.ToMonitorPath()
		if err != nil {
			return nil, errors.Wrapf(err, "invalid path declaration at index %d", i)
		}
		paths[i] = path
	}
	return paths, nil
}

// Load reads and decodes a Manifest from path.
func Load(path string) (*Manifest, error) {
	var manifest Manifest
	if err := encoding.LoadAndUnmarshalYAML(path, &manifest); err != nil {
		return nil, err
	}
	if manifest.CacheFile == "" {
		return nil, errors.New("manifest must set cacheFile")
	}
	return &manifest, nil
}
