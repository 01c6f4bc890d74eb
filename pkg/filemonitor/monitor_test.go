package filemonitor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/monocle-build/filemonitor/pkg/filemonitor/glob"
	"github.com/monocle-build/filemonitor/pkg/hashing"
	"github.com/monocle-build/filemonitor/pkg/pathutil"
)

type monitorTestKey struct {
	Recipe string
	Note   string
}

type monitorTestResult struct {
	Output string
}

func TestMonitorCheckReportsNoCacheInitially(t *testing.T) {
	dir := t.TempDir()
	monitor := NewMonitor(dir, filepath.Join(dir, ".cache"), hashing.AlgorithmSHA256, nil, false, nil)

	paths := []MonitorPath{SinglePath{FileKind: FileHashedKind, Path: "a.txt"}}
	result, err := monitor.Check(monitorTestKey{Recipe: "build"}, paths)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Changed || result.Reason != ChangeReasonNoCache {
		t.Errorf("expected ChangeReasonNoCache, got %+v", result)
	}
}

func TestMonitorUpdateThenCheckHitsCache(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "a.txt"), "hello")

	monitor := NewMonitor(dir, filepath.Join(dir, ".cache"), hashing.AlgorithmSHA256, nil, false, nil)
	paths := []MonitorPath{SinglePath{FileKind: FileHashedKind, Path: "a.txt"}}
	key := monitorTestKey{Recipe: "build"}

	if err := monitor.Update(key, monitorTestResult{Output: "ok"}, paths); err != nil {
		t.Fatal(err)
	}

	result, err := monitor.Check(key, paths)
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Errorf("expected cache hit, got %+v", result)
	}
	if len(result.DeclaredPaths) != 1 {
		t.Errorf("expected declared paths to be reconstructed, got %d", len(result.DeclaredPaths))
	}
}

func TestMonitorCheckReportsKeyChanged(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "a.txt"), "hello")

	monitor := NewMonitor(dir, filepath.Join(dir, ".cache"), hashing.AlgorithmSHA256, nil, false, nil)
	paths := []MonitorPath{SinglePath{FileKind: FileHashedKind, Path: "a.txt"}}

	if err := monitor.Update(monitorTestKey{Recipe: "build"}, monitorTestResult{Output: "ok"}, paths); err != nil {
		t.Fatal(err)
	}

	result, err := monitor.Check(monitorTestKey{Recipe: "test"}, paths)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Changed || result.Reason != ChangeReasonKeyChanged {
		t.Errorf("expected ChangeReasonKeyChanged, got %+v", result)
	}
}

func TestMonitorCheckReportsPathChanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	writeTestFile(t, path, "hello")

	monitor := NewMonitor(dir, filepath.Join(dir, ".cache"), hashing.AlgorithmSHA256, nil, false, nil)
	paths := []MonitorPath{SinglePath{FileKind: FileHashedKind, Path: "a.txt"}}
	key := monitorTestKey{Recipe: "build"}

	if err := monitor.Update(key, monitorTestResult{Output: "ok"}, paths); err != nil {
		t.Fatal(err)
	}

	writeTestFile(t, path, "goodbye")

	result, err := monitor.Check(key, paths)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Changed || result.Reason != ChangeReasonPathChanged {
		t.Errorf("expected ChangeReasonPathChanged, got %+v", result)
	}
}

func TestMonitorBeginUpdateMarksChangesDuringUpdate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	writeTestFile(t, path, "hello")

	monitor := NewMonitor(dir, filepath.Join(dir, ".cache"), hashing.AlgorithmSHA256, nil, false, nil)
	paths := []MonitorPath{SinglePath{FileKind: FileModTimeKind, Path: "a.txt"}}
	key := monitorTestKey{Recipe: "build"}

	cutoff, err := monitor.BeginUpdate()
	if err != nil {
		t.Fatal(err)
	}

	// Simulate the action itself touching a.txt during the update window:
	// its recorded modification time is at or after the begin-update
	// cutoff, so it must be treated as untrustworthy even though the
	// snapshot built here looks perfectly ordinary.
	if err := os.Chtimes(path, cutoff, cutoff); err != nil {
		t.Fatal(err)
	}

	if err := monitor.Update(key, monitorTestResult{Output: "ok"}, paths); err != nil {
		t.Fatal(err)
	}

	result, err := monitor.Check(key, paths)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Changed || result.Reason != ChangeReasonPathChanged {
		t.Errorf("expected a path recorded during BeginUpdate's window to always report changed, got %+v", result)
	}
}

func TestMonitorUnreadableCacheTreatedAsChanged(t *testing.T) {
	dir := t.TempDir()
	cachePath := filepath.Join(dir, ".cache")
	if err := os.WriteFile(cachePath, []byte("not a valid cache file"), 0600); err != nil {
		t.Fatal(err)
	}

	monitor := NewMonitor(dir, cachePath, hashing.AlgorithmSHA256, nil, false, nil)
	result, err := monitor.Check(monitorTestKey{Recipe: "build"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Changed || result.Reason != ChangeReasonUnreadableCache {
		t.Errorf("expected ChangeReasonUnreadableCache, got %+v", result)
	}
}

// TestMonitorCustomKeyEqualIgnoresDeclaredFields exercises a keyEqual that
// only compares a subset of the key's fields, confirming it is consulted in
// place of the default reflect.DeepEqual comparison.
func TestMonitorCustomKeyEqualIgnoresDeclaredFields(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "a.txt"), "hello")

	sameRecipe := func(cached, current any) bool {
		return cached.(monitorTestKey).Recipe == current.(monitorTestKey).Recipe
	}
	monitor := NewMonitor(dir, filepath.Join(dir, ".cache"), hashing.AlgorithmSHA256, sameRecipe, false, nil)
	paths := []MonitorPath{SinglePath{FileKind: FileHashedKind, Path: "a.txt"}}

	if err := monitor.Update(monitorTestKey{Recipe: "build"}, monitorTestResult{Output: "ok"}, paths); err != nil {
		t.Fatal(err)
	}

	result, err := monitor.Check(monitorTestKey{Recipe: "build", Note: "rerun"}, paths)
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Errorf("expected custom keyEqual to treat an irrelevant field difference as unchanged, got %+v", result)
	}

	result, err = monitor.Check(monitorTestKey{Recipe: "test"}, paths)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Changed || result.Reason != ChangeReasonKeyChanged {
		t.Errorf("expected a differing Recipe to still be reported as ChangeReasonKeyChanged, got %+v", result)
	}
}

// TestMonitorCheckOnlyValueChangeProbesPathsBeforeKey confirms that with
// checkOnlyValueChange set, a path change is reported even when the key also
// differs — the ordering guarantee is that ChangeReasonKeyChanged is only
// ever returned once every declared path has already been confirmed
// unchanged.
func TestMonitorCheckOnlyValueChangeProbesPathsBeforeKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	writeTestFile(t, path, "hello")

	monitor := NewMonitor(dir, filepath.Join(dir, ".cache"), hashing.AlgorithmSHA256, nil, true, nil)
	paths := []MonitorPath{SinglePath{FileKind: FileHashedKind, Path: "a.txt"}}

	if err := monitor.Update(monitorTestKey{Recipe: "build"}, monitorTestResult{Output: "ok"}, paths); err != nil {
		t.Fatal(err)
	}

	writeTestFile(t, path, "goodbye")

	result, err := monitor.Check(monitorTestKey{Recipe: "test"}, paths)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Changed || result.Reason != ChangeReasonPathChanged {
		t.Errorf("expected the path change to take priority over the key change, got %+v", result)
	}

	result, err = monitor.Check(monitorTestKey{Recipe: "test"}, paths)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Changed || result.Reason != ChangeReasonPathChanged {
		t.Errorf("expected the still-stale cache to keep reporting ChangeReasonPathChanged, got %+v", result)
	}
}

// TestMonitorCheckOpportunisticallyPersistsCacheChange locks in scenario S4:
// an appeared, empty glob subdirectory does not invalidate the cached
// result, but Check still rewrites the cache file to record it.
func TestMonitorCheckOpportunisticallyPersistsCacheChange(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "d1"), 0700); err != nil {
		t.Fatal(err)
	}
	writeTestFile(t, filepath.Join(dir, "d1", "x.txt"), "hello")

	pieces, err := glob.NewPieces("*")
	if err != nil {
		t.Fatal(err)
	}
	filePieces, err := glob.NewPieces("x.txt")
	if err != nil {
		t.Fatal(err)
	}
	paths := []MonitorPath{
		GlobPath{
			FileKind: FileModTimeKind,
			Root: RootedGlob{
				Root: pathutil.FilePathRoot{Kind: pathutil.RootRelative},
				Glob: GlobDir{Pieces: pieces, Sub: GlobFile{Pieces: filePieces}},
			},
		},
	}

	cachePath := filepath.Join(dir, ".cache")
	monitor := NewMonitor(dir, cachePath, hashing.AlgorithmSHA256, nil, false, nil)
	key := monitorTestKey{Recipe: "build"}

	if err := monitor.Update(key, monitorTestResult{Output: "ok"}, paths); err != nil {
		t.Fatal(err)
	}

	before, err := os.Stat(cachePath)
	if err != nil {
		t.Fatal(err)
	}

	// Ensure a distinct mtime even on coarse filesystem clocks before the
	// opportunistic rewrite.
	time.Sleep(10 * time.Millisecond)

	if err := os.MkdirAll(filepath.Join(dir, "d2"), 0700); err != nil {
		t.Fatal(err)
	}

	result, err := monitor.Check(key, paths)
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Errorf("expected an empty appeared glob subdirectory not to invalidate the cached result, got %+v", result)
	}

	after, err := os.Stat(cachePath)
	if err != nil {
		t.Fatal(err)
	}
	if !after.ModTime().After(before.ModTime()) {
		t.Error("expected Check to have opportunistically rewritten the cache file")
	}
}
