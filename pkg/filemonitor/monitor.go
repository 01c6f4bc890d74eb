package filemonitor

import (
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/pkg/errors"

	"github.com/monocle-build/filemonitor/pkg/fsio"
	"github.com/monocle-build/filemonitor/pkg/hashing"
	"github.com/monocle-build/filemonitor/pkg/logging"
	"github.com/monocle-build/filemonitor/pkg/must"
)

// ChangeReason identifies why Check reported that a cached result cannot be
// reused.
type ChangeReason uint8

const (
	// ChangeReasonNone indicates nothing changed; the cached result, if
	// any, may be reused.
	ChangeReasonNone ChangeReason = iota
	// ChangeReasonNoCache indicates no cache file exists yet.
	ChangeReasonNoCache
	// ChangeReasonUnreadableCache indicates a cache file exists but could
	// not be decoded (format mismatch, corruption, or a caller key/result
	// type change between runs).
	ChangeReasonUnreadableCache
	// ChangeReasonKeyChanged indicates the caller-supplied key no longer
	// matches what was cached.
	ChangeReasonKeyChanged
	// ChangeReasonPathChanged indicates at least one declared monitor path
	// no longer matches its cached filesystem state.
	ChangeReasonPathChanged
)

// CheckResult is the outcome of Check.
type CheckResult struct {
	// Reason explains why Changed is true, or is ChangeReasonNone if not.
	Reason ChangeReason
	// Changed is true if the cached result cannot be reused.
	Changed bool
	// DeclaredPaths is the set of monitor paths reconstructed from the
	// cache file, present whenever a cache file was read successfully
	// (regardless of Changed).
	DeclaredPaths []MonitorPath
}

// KeyEqualFunc compares a decoded cached key against the key passed to
// Check, in place of the default reflect.DeepEqual comparison performed by
// CacheFile.KeyEquals. It lets a caller whose key type carries fields that
// should be ignored for cache validity define its own notion of equality.
type KeyEqualFunc func(cached, current any) bool

// Monitor is the façade over the probe engine, snapshot builder, and cache
// codec: given a declared set of monitor paths and a location to persist
// state, it answers whether a previously cached result remains valid and
// records fresh results after they are recomputed.
type Monitor struct {
	root      string
	cachePath string
	algorithm hashing.Algorithm
	cache     *FileHashCache
	logger    *logging.Logger

	keyEqual             KeyEqualFunc
	checkOnlyValueChange bool

	beginUpdate time.Time
	haveBegin   bool
}

// NewMonitor creates a Monitor rooted at root, persisting its cache file at
// cachePath. keyEqual may be nil, in which case Check compares keys with
// reflect.DeepEqual (via CacheFile.KeyEquals).
//
// checkOnlyValueChange controls the order in which Check compares the
// cache key against the declared paths' filesystem state. When false (the
// default), the key is compared first, since it is far cheaper than
// probing the filesystem and a mismatch makes the probe moot. When true,
// Check probes every declared path first and only then compares the key,
// so that a caller observing ChangeReasonKeyChanged can rely on that
// meaning the key is the *only* thing that changed — no declared path's
// filesystem state had already diverged by the time the key was checked.
// logger may be nil.
func NewMonitor(root, cachePath string, algorithm hashing.Algorithm, keyEqual KeyEqualFunc, checkOnlyValueChange bool, logger *logging.Logger) *Monitor {
	return &Monitor{
		root:                 root,
		cachePath:            cachePath,
		algorithm:            algorithm,
		cache:                NewFileHashCache(),
		keyEqual:             keyEqual,
		checkOnlyValueChange: checkOnlyValueChange,
		logger:               logger,
	}
}

// BeginUpdate marks the start of recomputing a result, recording a
// wall-clock timestamp read from the filesystem itself (rather than the
// process clock) so that the "changed during update" check in Update
// compares against the same clock the filesystem's modification times are
// drawn from. It creates and immediately removes a short-lived probe file
// in the monitor's root, mirroring mutagen's use of a probe file to read
// filesystem timestamp behavior directly.
func (m *Monitor) BeginUpdate() (time.Time, error) {
	probePath := filepath.Join(m.root, fsio.TemporaryNamePrefix+"clock-probe")
	if err := fsio.WriteFileAtomic(probePath, nil, 0600); err != nil {
		return time.Time{}, errors.Wrap(err, "unable to probe filesystem clock")
	}
	defer must.OSRemove(probePath, m.logger)

	modTime, err := fsio.ModTime(probePath)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "unable to read filesystem clock probe")
	}

	m.beginUpdate = modTime
	m.haveBegin = true
	return modTime, nil
}

// SetBeginUpdate marks the monitor as having an in-progress update starting
// at t, exactly as if BeginUpdate had just returned t. It exists so that a
// begin-update timestamp captured in one process can be carried into
// Update in another (the CLI's begin-update and update subcommands run as
// separate processes and so cannot share a single Monitor value).
func (m *Monitor) SetBeginUpdate(t time.Time) {
	m.beginUpdate = t
	m.haveBegin = true
}

// Check determines whether a previously cached result for key, given the
// currently declared paths, remains valid. It never recomputes a result;
// a caller that finds Changed true is expected to recompute it and call
// Update. It may still rewrite the cache file even when Changed is false,
// if probing the declared paths discovered state worth persisting (e.g. a
// newly appeared, as-yet-empty glob subtree) without invalidating the
// cached result itself — see probeAll.
func (m *Monitor) Check(key any, paths []MonitorPath) (CheckResult, error) {
	cached, err := ReadCacheFile(m.cachePath)
	if os.IsNotExist(err) {
		return CheckResult{Reason: ChangeReasonNoCache, Changed: true}, nil
	} else if err != nil {
		m.logger.Warnf("cache file unreadable, treating as changed: %s", err.Error())
		return CheckResult{Reason: ChangeReasonUnreadableCache, Changed: true}, nil
	}

	declaredPaths := cached.Files.DeclaredPaths()

	if m.checkOnlyValueChange {
		// Probe every declared path before comparing the key, so that a
		// caller observing ChangeReasonKeyChanged can rely on no declared
		// path having changed either.
		pathsChanged, cacheChanged, updated, err := m.probeAll(cached.Files)
		if err != nil {
			return CheckResult{}, err
		}
		if pathsChanged {
			return CheckResult{Reason: ChangeReasonPathChanged, Changed: true, DeclaredPaths: declaredPaths}, nil
		}
		return m.finishCheck(cached, key, updated, cacheChanged, declaredPaths)
	}

	// Compare the caller-supplied key first: it is far cheaper than
	// probing the filesystem, and a key mismatch makes a filesystem probe
	// moot regardless of its outcome.
	keyMatches, err := m.keysEqual(cached, key)
	if err != nil {
		m.logger.Warnf("cached key unreadable, treating as changed: %s", err.Error())
		return CheckResult{Reason: ChangeReasonUnreadableCache, Changed: true, DeclaredPaths: declaredPaths}, nil
	}
	if !keyMatches {
		return CheckResult{Reason: ChangeReasonKeyChanged, Changed: true, DeclaredPaths: declaredPaths}, nil
	}

	changed, cacheChanged, updated, err := m.probeAll(cached.Files)
	if err != nil {
		return CheckResult{}, err
	}
	if changed {
		return CheckResult{Reason: ChangeReasonPathChanged, Changed: true, DeclaredPaths: declaredPaths}, nil
	}

	if cacheChanged {
		if err := cached.persistFiles(m.cachePath, updated); err != nil {
			m.logger.Warnf("unable to persist opportunistic cache update: %s", err.Error())
		}
	}
	return CheckResult{Reason: ChangeReasonNone, Changed: false, DeclaredPaths: declaredPaths}, nil
}

// finishCheck handles the key comparison and opportunistic persist for the
// checkOnlyValueChange ordering, after paths have already been confirmed
// unchanged.
func (m *Monitor) finishCheck(cached *CacheFile, key any, updated FileSet, cacheChanged bool, declaredPaths []MonitorPath) (CheckResult, error) {
	keyMatches, err := m.keysEqual(cached, key)
	if err != nil {
		m.logger.Warnf("cached key unreadable, treating as changed: %s", err.Error())
		return CheckResult{Reason: ChangeReasonUnreadableCache, Changed: true, DeclaredPaths: declaredPaths}, nil
	}
	if cacheChanged {
		if err := cached.persistFiles(m.cachePath, updated); err != nil {
			m.logger.Warnf("unable to persist opportunistic cache update: %s", err.Error())
		}
	}
	if !keyMatches {
		return CheckResult{Reason: ChangeReasonKeyChanged, Changed: true, DeclaredPaths: declaredPaths}, nil
	}
	return CheckResult{Reason: ChangeReasonNone, Changed: false, DeclaredPaths: declaredPaths}, nil
}

// keysEqual compares the cache file's stored key against key, using
// m.keyEqual if set or CacheFile.KeyEquals (reflect.DeepEqual) otherwise.
func (m *Monitor) keysEqual(cached *CacheFile, key any) (bool, error) {
	if m.keyEqual == nil {
		return cached.KeyEquals(key)
	}
	target := reflect.New(reflect.TypeOf(key))
	if err := cached.DecodeKey(target.Interface()); err != nil {
		return false, errors.Wrap(err, "unable to decode cached key")
	}
	return m.keyEqual(target.Elem().Interface(), key), nil
}

// probeAll re-probes every path in a cached FileSet and reports whether
// anything invalidates the cached result (changed), whether the snapshot
// is worth rewriting even if nothing did (cacheChanged), and the fresh
// FileSet to persist in either case. It never itself writes anything: the
// caller decides whether and what to persist.
func (m *Monitor) probeAll(cached FileSet) (changed, cacheChanged bool, updated FileSet, err error) {
	updated.Files = make([]MonitorStateFile, len(cached.Files))
	for i, file := range cached.Files {
		result, err := ProbeSingle(m.root, file, m.algorithm, m.cache)
		if err != nil {
			return false, false, FileSet{}, errors.Wrapf(err, "unable to probe %q", file.Path)
		}
		updated.Files[i] = result.Updated
		if result.Changed {
			changed = true
		}
	}
	updated.Globs = make([]MonitorStateGlob, len(cached.Globs))
	for i, glob := range cached.Globs {
		globChanged, globCacheChanged, state, err := ProbeGlob(m.root, glob, m.algorithm, m.cache)
		if err != nil {
			return false, false, FileSet{}, err
		}
		updated.Globs[i] = state
		if globChanged {
			changed = true
		}
		if globCacheChanged {
			cacheChanged = true
		}
	}
	return changed, cacheChanged, updated, nil
}

// Update recomputes and persists a fresh snapshot of paths alongside key
// and result, replacing any previous cache file. If BeginUpdate was called
// since the last Update, any path whose modification time is at or after
// the begin-update timestamp is marked AlreadyChanged in the new snapshot,
// forcing the next Check to report a change for it regardless of whether
// it appears unchanged in the interim: the filesystem clock's resolution
// means a change made during the update and a change made immediately
// after it can otherwise be indistinguishable.
func (m *Monitor) Update(key, result any, paths []MonitorPath) error {
	fresh, err := BuildFileSet(m.root, paths, m.algorithm, m.cache)
	if err != nil {
		return err
	}

	if m.haveBegin {
		fresh = markAlreadyChanged(fresh, m.beginUpdate)
		m.haveBegin = false
	}

	return WriteCacheFile(m.cachePath, key, result, fresh)
}

// markAlreadyChanged replaces with AlreadyChanged every status (single
// paths and glob file entries alike) whose recorded modification time is at
// or after cutoff. Glob directory modification times at or after cutoff are
// zeroed instead; only a GlobStateKindDirTrailing node's modification time
// is compared by the probe, so only there does zeroing force a change.
func markAlreadyChanged(set FileSet, cutoff time.Time) FileSet {
	for i, file := range set.Files {
		if statusAtOrAfter(file.Status, cutoff) {
			set.Files[i].Status = AlreadyChanged()
		}
	}
	for i, glob := range set.Globs {
		set.Globs[i].State = markGlobAlreadyChanged(glob.State, cutoff)
	}
	return set
}

func markGlobAlreadyChanged(state GlobState, cutoff time.Time) GlobState {
	switch state.Kind {
	case GlobStateKindDirTrailing:
		if !state.DirModTime.Before(cutoff) {
			// There is no AlreadyChanged representation for a bare
			// directory modification time; force a mismatch by zeroing it
			// so no real modification time can equal it.
			state.DirModTime = time.Time{}
		}
		return state
	case GlobStateKindFiles:
		for i, entry := range state.Entries {
			if statusAtOrAfter(entry.Status, cutoff) {
				state.Entries[i].Status = AlreadyChanged()
			}
		}
		return state
	case GlobStateKindDirs:
		if !state.DirModTime.Before(cutoff) {
			state.DirModTime = time.Time{}
		}
		for i, child := range state.Children {
			state.Children[i].State = markGlobAlreadyChanged(child.State, cutoff)
		}
		return state
	default:
		return state
	}
}

func statusAtOrAfter(status FileStatus, cutoff time.Time) bool {
	switch status.Kind {
	case StatusFileModTime, StatusFileHashed, StatusDirModTime:
		return !status.ModTime.Before(cutoff)
	default:
		return false
	}
}
