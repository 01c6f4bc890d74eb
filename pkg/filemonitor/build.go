package filemonitor

import (
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/monocle-build/filemonitor/pkg/filemonitor/glob"
	"github.com/monocle-build/filemonitor/pkg/fsio"
	"github.com/monocle-build/filemonitor/pkg/hashing"
)

// ErrRecursiveGlobUnsupported is returned by BuildFileSet when a declared
// Glob tree contains a GlobDirRecursive node. Recursive "**" globs are
// rejected rather than silently truncated, since silently monitoring less
// than was declared would be unsound.
var ErrRecursiveGlobUnsupported = errors.New("recursive glob patterns are not supported")

// HashCacheEntry is a single memoized content hash, valid only as long as
// ModTime has not changed.
type HashCacheEntry struct {
	ModTime time.Time
	Hash    []byte
}

// FileHashCache memoizes content hashes by root-relative path so that
// rebuilding a snapshot does not rehash files whose modification time has
// not changed since the last build, mirroring mutagen's
// Cache.Entries map[string]*Entry convention.
type FileHashCache struct {
	Entries map[string]HashCacheEntry
}

// NewFileHashCache returns an empty hash cache.
func NewFileHashCache() *FileHashCache {
	return &FileHashCache{Entries: make(map[string]HashCacheEntry)}
}

func (c *FileHashCache) lookup(key string, modTime time.Time) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	entry, ok := c.Entries[key]
	if !ok || !entry.ModTime.Equal(modTime) {
		return nil, false
	}
	return entry.Hash, true
}

func (c *FileHashCache) store(key string, modTime time.Time, hash []byte) {
	if c == nil {
		return
	}
	c.Entries[key] = HashCacheEntry{ModTime: modTime, Hash: hash}
}

// hashCached returns the content hash of the file at abs, reusing cache's
// memoized value if modTime matches what was last recorded under key.
func hashCached(cache *FileHashCache, key, abs string, modTime time.Time, algorithm hashing.Algorithm) ([]byte, error) {
	if hash, ok := cache.lookup(key, modTime); ok {
		return hash, nil
	}
	hash, err := fsio.HashFile(abs, algorithm)
	if err != nil {
		return nil, err
	}
	cache.store(key, modTime, hash)
	return hash, nil
}

// BuildFileSet probes every declared path under monitorRoot and returns a
// fresh FileSet describing their current filesystem state. algorithm
// selects the content-hashing algorithm for FileHashedKind paths; cache may
// be nil, in which case every hashed file is rehashed unconditionally.
func BuildFileSet(monitorRoot string, paths []MonitorPath, algorithm hashing.Algorithm, cache *FileHashCache) (FileSet, error) {
	var result FileSet
	for _, path := range paths {
		switch p := path.(type) {
		case SinglePath:
			file, err := buildSingle(monitorRoot, p, algorithm, cache)
			if err != nil {
				return FileSet{}, errors.Wrapf(err, "unable to probe path %q", p.Path)
			}
			result.Files = append(result.Files, file)
		case GlobPath:
			state, err := buildGlob(monitorRoot, p, algorithm, cache)
			if err != nil {
				return FileSet{}, err
			}
			result.Globs = append(result.Globs, state)
		default:
			return FileSet{}, errors.Errorf("unknown monitor path type %T", path)
		}
	}
	return result, nil
}

// buildSingle probes a single declared SinglePath, which is always resolved
// relative to monitorRoot.
func buildSingle(monitorRoot string, p SinglePath, algorithm hashing.Algorithm, cache *FileHashCache) (MonitorStateFile, error) {
	abs := filepath.Join(monitorRoot, p.Path)
	status, err := probeFileStatus(abs, p.Path, p.FileKind, p.DirKind, algorithm, cache)
	if err != nil {
		return MonitorStateFile{}, err
	}
	return MonitorStateFile{FileKind: p.FileKind, DirKind: p.DirKind, Path: p.Path, Status: status}, nil
}

// probeFileStatus stats abs and builds the FileStatus appropriate to the
// declared fileKind/dirKind, capturing only as much detail as declared
// (existence, modification time, or modification time plus content hash).
// A path whose actual kind (file, directory, or neither) contradicts what
// was declared required or forbidden is reported as AlreadyChanged, since
// no ordinary FileStatus variant can represent "this should not exist" or
// "this should exist" being violated.
func probeFileStatus(abs, cacheKey string, fileKind FileKind, dirKind DirKind, algorithm hashing.Algorithm, cache *FileHashCache) (FileStatus, error) {
	isFile, isDir, modTime, err := fsio.Stat(abs)
	if err != nil {
		return FileStatus{}, errors.Wrapf(err, "unable to stat %q", abs)
	}
	switch {
	case isFile:
		switch fileKind {
		case FileNotExists:
			return AlreadyChanged(), nil
		case FileHashedKind:
			hash, err := hashCached(cache, cacheKey, abs, modTime, algorithm)
			if err != nil {
				return FileStatus{}, errors.Wrapf(err, "unable to hash %q", abs)
			}
			return FileStatus{Kind: StatusFileHashed, ModTime: modTime, Hash: hash}, nil
		case FileModTimeKind:
			return FileStatus{Kind: StatusFileModTime, ModTime: modTime}, nil
		default:
			return FileStatus{Kind: StatusFileExists}, nil
		}
	case isDir:
		switch dirKind {
		case DirNotExists:
			return AlreadyChanged(), nil
		case DirModTimeKind:
			return FileStatus{Kind: StatusDirModTime, ModTime: modTime}, nil
		default:
			return FileStatus{Kind: StatusDirExists}, nil
		}
	default:
		if fileKind == FileModTimeKind || fileKind == FileHashedKind || fileKind == FileExistsKind ||
			dirKind == DirModTimeKind || dirKind == DirExistsKind {
			return AlreadyChanged(), nil
		}
		return FileStatus{Kind: StatusNonExistent}, nil
	}
}

// buildGlob resolves a GlobPath's root and walks its Glob tree.
func buildGlob(monitorRoot string, p GlobPath, algorithm hashing.Algorithm, cache *FileHashCache) (MonitorStateGlob, error) {
	rootDir, err := p.Root.Root.Resolve(monitorRoot)
	if err != nil {
		return MonitorStateGlob{}, errors.Wrap(err, "unable to resolve glob root")
	}
	state, err := buildGlobNode(rootDir, rootDir, p.Root.Glob, p.FileKind, p.DirKind, algorithm, cache)
	if err != nil {
		return MonitorStateGlob{}, err
	}
	return MonitorStateGlob{FileKind: p.FileKind, DirKind: p.DirKind, Root: p.Root.Root, State: state}, nil
}

// buildGlobNode recursively builds the GlobState for a single Glob tree
// node. absDir is the directory the node's pattern is matched within;
// cacheKey is its root-relative path, used as the hash-cache key prefix for
// any files found beneath it.
func buildGlobNode(absDir, cacheKey string, g Glob, fileKind FileKind, dirKind DirKind, algorithm hashing.Algorithm, cache *FileHashCache) (GlobState, error) {
	switch node := g.(type) {
	case GlobDirTrailing:
		modTime, err := fsio.ModTime(absDir)
		if err != nil {
			return GlobState{}, errors.Wrapf(err, "unable to stat %q", absDir)
		}
		return GlobState{Kind: GlobStateKindDirTrailing, DirModTime: modTime}, nil

	case GlobFile:
		entries, err := fsio.ReadDirEntries(absDir)
		if err != nil {
			return GlobState{}, errors.Wrapf(err, "unable to list %q", absDir)
		}
		var matched []GlobFileEntry
		for _, entry := range sortedBasenames(entries) {
			// Unlike GlobDir below, entries here are filtered by pattern
			// only: a GlobFile leaf matches any basename that matches
			// Pieces, file or directory alike. This asymmetry with GlobDir
			// is deliberate and should not be "fixed" without coordination.
			if !glob.MatchPieces(node.Pieces, entry.Name) {
				continue
			}
			status, err := probeFileStatus(filepath.Join(absDir, entry.Name), filepath.Join(cacheKey, entry.Name), fileKind, dirKind, algorithm, cache)
			if err != nil {
				return GlobState{}, err
			}
			matched = append(matched, GlobFileEntry{Name: entry.Name, Status: status})
		}
		return GlobState{Kind: GlobStateKindFiles, Pieces: node.Pieces, Entries: matched}, nil

	case GlobDir:
		dirModTime, err := fsio.ModTime(absDir)
		if err != nil {
			return GlobState{}, errors.Wrapf(err, "unable to stat %q", absDir)
		}
		entries, err := fsio.ReadDirEntries(absDir)
		if err != nil {
			return GlobState{}, errors.Wrapf(err, "unable to list %q", absDir)
		}
		var matched []GlobChildDir
		for _, entry := range sortedBasenames(entries) {
			if !entry.IsDir || !glob.MatchPieces(node.Pieces, entry.Name) {
				continue
			}
			childState, err := buildGlobNode(filepath.Join(absDir, entry.Name), filepath.Join(cacheKey, entry.Name), node.Sub, fileKind, dirKind, algorithm, cache)
			if err != nil {
				return GlobState{}, err
			}
			matched = append(matched, GlobChildDir{Name: entry.Name, State: childState})
		}
		return GlobState{Kind: GlobStateKindDirs, Pieces: node.Pieces, Sub: node.Sub, DirModTime: dirModTime, Children: matched}, nil

	case GlobDirRecursive:
		return GlobState{}, ErrRecursiveGlobUnsupported

	default:
		return GlobState{}, errors.Errorf("unknown glob node type %T", g)
	}
}
