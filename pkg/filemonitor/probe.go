package filemonitor

import (
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/monocle-build/filemonitor/pkg/filemonitor/glob"
	"github.com/monocle-build/filemonitor/pkg/fsio"
	"github.com/monocle-build/filemonitor/pkg/hashing"
)

// ProbeResult reports the outcome of checking a single declared path
// against its cached snapshot.
type ProbeResult struct {
	// Changed indicates the path's filesystem state no longer matches what
	// was recorded.
	Changed bool
	// Updated holds the fresh state to persist, whether or not it changed
	// (an unchanged path is still re-recorded so that cheap status kinds,
	// like StatusFileExists, pick up a fresh AlreadyChanged reset).
	Updated MonitorStateFile
}

// ProbeSingle checks a single declared SinglePath against its cached
// snapshot, re-probing the filesystem and returning both whether anything
// changed and the snapshot that should replace the cached one.
func ProbeSingle(monitorRoot string, cached MonitorStateFile, algorithm hashing.Algorithm, cache *FileHashCache) (ProbeResult, error) {
	fresh, err := buildSingle(monitorRoot, SinglePath{FileKind: cached.FileKind, DirKind: cached.DirKind, Path: cached.Path}, algorithm, cache)
	if err != nil {
		return ProbeResult{}, err
	}
	changed := cached.Status.Kind == StatusAlreadyChanged || statusChanged(cached.Status, fresh.Status)
	return ProbeResult{Changed: changed, Updated: fresh}, nil
}

// statusChanged reports whether two FileStatus values represent a
// meaningful change. Kind mismatches (e.g. a file where a directory was
// recorded) always count as a change. Modification-time statuses compare
// ModTime; hashed statuses compare Hash only, so a file whose modification
// time moved but whose content is unchanged is not a change.
func statusChanged(old, fresh FileStatus) bool {
	if old.Kind != fresh.Kind {
		return true
	}
	switch old.Kind {
	case StatusFileModTime, StatusDirModTime:
		return !old.ModTime.Equal(fresh.ModTime)
	case StatusFileHashed:
		return string(old.Hash) != string(fresh.Hash)
	default:
		return false
	}
}

// globStateHasMatches reports whether state's subtree contains any entry
// that actually matches a declared pattern: a non-empty GlobStateKindFiles
// node, or a GlobStateKindDirTrailing node (whose own presence is the
// match), recursively through GlobStateKindDirs children. An empty
// directory subtree (no matching files anywhere beneath it) reports
// false, which is what lets an appearing or vanishing empty directory be
// treated as cache-worth-updating rather than cache-invalidating.
func globStateHasMatches(state GlobState) bool {
	switch state.Kind {
	case GlobStateKindFiles:
		return len(state.Entries) > 0
	case GlobStateKindDirTrailing:
		return true
	case GlobStateKindDirs:
		for _, child := range state.Children {
			if globStateHasMatches(child.State) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// ProbeGlob checks a single declared GlobPath against its cached snapshot.
// It returns whether the cached result is now invalid (changed) separately
// from whether the snapshot itself is worth rewriting even though the
// result remains valid (cacheChanged) — see probeGlobNode's
// GlobStateKindDirs case for the asymmetric policy that produces the
// latter.
func ProbeGlob(monitorRoot string, cached MonitorStateGlob, algorithm hashing.Algorithm, cache *FileHashCache) (changed, cacheChanged bool, state MonitorStateGlob, err error) {
	rootDir, err := cached.Root.Resolve(monitorRoot)
	if err != nil {
		return false, false, MonitorStateGlob{}, errors.Wrap(err, "unable to resolve glob root")
	}
	nodeChanged, nodeCacheChanged, nodeState, err := probeGlobNode(rootDir, rootDir, cached.State, cached.FileKind, cached.DirKind, algorithm, cache)
	if err != nil {
		return false, false, MonitorStateGlob{}, err
	}
	return nodeChanged, nodeCacheChanged, MonitorStateGlob{FileKind: cached.FileKind, DirKind: cached.DirKind, Root: cached.Root, State: nodeState}, nil
}

func probeGlobNode(absDir, cacheKey string, cached GlobState, fileKind FileKind, dirKind DirKind, algorithm hashing.Algorithm, cache *FileHashCache) (bool, bool, GlobState, error) {
	switch cached.Kind {
	case GlobStateKindDirTrailing:
		modTime, err := fsio.ModTime(absDir)
		if err != nil {
			return false, false, GlobState{}, errors.Wrapf(err, "unable to stat %q", absDir)
		}
		changed := !modTime.Equal(cached.DirModTime)
		return changed, false, GlobState{Kind: GlobStateKindDirTrailing, DirModTime: modTime}, nil

	case GlobStateKindFiles:
		entries, err := fsio.ReadDirEntries(absDir)
		if err != nil {
			return false, false, GlobState{}, errors.Wrapf(err, "unable to list %q", absDir)
		}
		var fresh []string
		for _, entry := range sortedBasenames(entries) {
			// See the matching comment in buildGlobNode: a GlobFile leaf
			// matches any basename that matches Pieces, with no filetype
			// check, asymmetrically with GlobDir below.
			if glob.MatchPieces(cached.Pieces, entry.Name) {
				fresh = append(fresh, entry.Name)
			}
		}
		cachedNames := make([]string, len(cached.Entries))
		for i, e := range cached.Entries {
			cachedNames[i] = e.Name
		}

		changed := false
		var result []GlobFileEntry
		var mergeErr error
		mergeSortedNames(cachedNames, fresh, func(disposition MergeDisposition, leftIndex, rightIndex int) {
			if mergeErr != nil {
				return
			}
			switch disposition {
			case OnlyInLeft:
				changed = true
			case OnlyInRight:
				changed = true
				name := fresh[rightIndex]
				status, err := probeFileStatus(filepath.Join(absDir, name), filepath.Join(cacheKey, name), fileKind, dirKind, algorithm, cache)
				if err != nil {
					mergeErr = err
					return
				}
				result = append(result, GlobFileEntry{Name: name, Status: status})
			case InBoth:
				name := fresh[rightIndex]
				status, err := probeFileStatus(filepath.Join(absDir, name), filepath.Join(cacheKey, name), fileKind, dirKind, algorithm, cache)
				if err != nil {
					mergeErr = err
					return
				}
				if statusChanged(cached.Entries[leftIndex].Status, status) {
					changed = true
				}
				result = append(result, GlobFileEntry{Name: name, Status: status})
			}
		})
		if mergeErr != nil {
			return false, false, GlobState{}, mergeErr
		}
		return changed, false, GlobState{Kind: GlobStateKindFiles, Pieces: cached.Pieces, Entries: result}, nil

	case GlobStateKindDirs:
		dirModTime, err := fsio.ModTime(absDir)
		if err != nil {
			return false, false, GlobState{}, errors.Wrapf(err, "unable to stat %q", absDir)
		}
		entries, err := fsio.ReadDirEntries(absDir)
		if err != nil {
			return false, false, GlobState{}, errors.Wrapf(err, "unable to list %q", absDir)
		}
		var fresh []string
		for _, entry := range sortedBasenames(entries) {
			if entry.IsDir && glob.MatchPieces(cached.Pieces, entry.Name) {
				fresh = append(fresh, entry.Name)
			}
		}
		cachedNames := make([]string, len(cached.Children))
		for i, c := range cached.Children {
			cachedNames[i] = c.Name
		}

		changed := false
		cacheChanged := false
		var result []GlobChildDir
		var mergeErr error
		mergeSortedNames(cachedNames, fresh, func(disposition MergeDisposition, leftIndex, rightIndex int) {
			if mergeErr != nil {
				return
			}
			switch disposition {
			case OnlyInLeft:
				// The directory disappeared. If its subtree ever matched a
				// file, the cached result may depend on a file we can no
				// longer account for: report a change. Otherwise keep the
				// stale entry in the snapshot silently — pruning it would
				// require a cache rewrite that costs more than the
				// negligible rescan an absent directory needs next time.
				if globStateHasMatches(cached.Children[leftIndex].State) {
					changed = true
				} else {
					result = append(result, cached.Children[leftIndex])
				}
			case OnlyInRight:
				name := fresh[rightIndex]
				childState, err := buildGlobNode(filepath.Join(absDir, name), filepath.Join(cacheKey, name), cached.Sub, fileKind, dirKind, algorithm, cache)
				if err != nil {
					mergeErr = err
					return
				}
				// A newly appeared directory that already contains a
				// matching file is a change (the cached result predates
				// that file's existence). One with no matches yet is
				// merely worth remembering so the next probe doesn't
				// re-walk it from scratch.
				if globStateHasMatches(childState) {
					changed = true
				} else {
					cacheChanged = true
				}
				result = append(result, GlobChildDir{Name: name, State: childState})
			case InBoth:
				name := fresh[rightIndex]
				childChanged, childCacheChanged, childState, err := probeGlobNode(filepath.Join(absDir, name), filepath.Join(cacheKey, name), cached.Children[leftIndex].State, fileKind, dirKind, algorithm, cache)
				if err != nil {
					mergeErr = err
					return
				}
				if childChanged {
					changed = true
				}
				if childCacheChanged {
					cacheChanged = true
				}
				result = append(result, GlobChildDir{Name: name, State: childState})
			}
		})
		if mergeErr != nil {
			return false, false, GlobState{}, mergeErr
		}
		// A directory mtime drift alone (no matching file added or
		// removed) is not a change — rewriting the cache just to record
		// fresh mtimes costs more than the scan it would spare. The fresh
		// mtime is still carried into the returned state below, and is
		// persisted only if cacheChanged was raised for some other reason.
		return changed, cacheChanged, GlobState{Kind: GlobStateKindDirs, Pieces: cached.Pieces, Sub: cached.Sub, DirModTime: dirModTime, Children: result}, nil

	default:
		return false, false, GlobState{}, errors.Errorf("unknown glob state kind %d", cached.Kind)
	}
}
