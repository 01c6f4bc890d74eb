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

func TestProbeSingleDetectsContentChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	writeTestFile(t, path, "hello")

	paths := []MonitorPath{SinglePath{FileKind: FileHashedKind, Path: "a.txt"}}
	set, err := BuildFileSet(dir, paths, hashing.AlgorithmSHA256, nil)
	if err != nil {
		t.Fatal(err)
	}

	result, err := ProbeSingle(dir, set.Files[0], hashing.AlgorithmSHA256, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Fatal("expected no change immediately after building snapshot")
	}

	// Ensure a distinct mtime even on coarse filesystem clocks.
	future := time.Now().Add(2 * time.Second)
	writeTestFile(t, path, "goodbye")
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	result, err = ProbeSingle(dir, set.Files[0], hashing.AlgorithmSHA256, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Changed {
		t.Error("expected change to be detected after content modification")
	}
}

func TestProbeSingleAlreadyChangedAlwaysReportsChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	writeTestFile(t, path, "hello")

	cached := MonitorStateFile{FileKind: FileExistsKind, Path: "a.txt", Status: AlreadyChanged()}
	result, err := ProbeSingle(dir, cached, hashing.AlgorithmSHA256, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Changed {
		t.Error("expected AlreadyChanged status to force a reported change")
	}
}

// TestProbeGlobEmptySubtreeAppearOrVanishIsNotAChange locks in the
// asymmetric cacheChanged policy: an appearing or vanishing subdirectory
// only invalidates the cached result if its subtree actually contains a
// file matching the glob. An empty subdirectory is cache-worth-updating
// (appear) or kept silently as a stale entry (vanish), but never
// cache-invalidating on its own.
func TestProbeGlobEmptySubtreeAppearOrVanishIsNotAChange(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub1"), 0700); err != nil {
		t.Fatal(err)
	}

	pieces, err := glob.NewPieces("sub*")
	if err != nil {
		t.Fatal(err)
	}
	filePieces, err := glob.NewPieces("*.go")
	if err != nil {
		t.Fatal(err)
	}

	globPath := GlobPath{
		FileKind: FileModTimeKind,
		Root: RootedGlob{
			Root: pathutil.FilePathRoot{Kind: pathutil.RootRelative},
			Glob: GlobDir{Pieces: pieces, Sub: GlobFile{Pieces: filePieces}},
		},
	}

	set, err := BuildFileSet(dir, []MonitorPath{globPath}, hashing.AlgorithmSHA256, nil)
	if err != nil {
		t.Fatal(err)
	}

	changed, cacheChanged, _, err := ProbeGlob(dir, set.Globs[0], hashing.AlgorithmSHA256, nil)
	if err != nil {
		t.Fatal(err)
	}
	if changed || cacheChanged {
		t.Fatalf("expected no change before any filesystem mutation, got changed=%v cacheChanged=%v", changed, cacheChanged)
	}

	// sub2 appears, empty: worth persisting, but not a change.
	if err := os.MkdirAll(filepath.Join(dir, "sub2"), 0700); err != nil {
		t.Fatal(err)
	}
	changed, cacheChanged, updated, err := ProbeGlob(dir, set.Globs[0], hashing.AlgorithmSHA256, nil)
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Error("expected an empty appeared subdirectory not to be reported as a change")
	}
	if !cacheChanged {
		t.Error("expected an empty appeared subdirectory to be reported as cache-worth-persisting")
	}
	if len(updated.State.Children) != 2 {
		t.Errorf("expected updated snapshot to include the new child, got %d children", len(updated.State.Children))
	}

	// sub1 vanishes, was always empty of matches: stale entry is kept
	// silently, still not a change.
	if err := os.RemoveAll(filepath.Join(dir, "sub1")); err != nil {
		t.Fatal(err)
	}
	changed, cacheChanged, updated, err = ProbeGlob(dir, updated, hashing.AlgorithmSHA256, nil)
	if err != nil {
		t.Fatal(err)
	}
	if changed || cacheChanged {
		t.Errorf("expected a vanished empty subdirectory to be neither a change nor cache-worth-persisting, got changed=%v cacheChanged=%v", changed, cacheChanged)
	}
	if len(updated.State.Children) != 2 {
		t.Errorf("expected the stale sub1 entry to be kept silently alongside sub2, got %+v", updated.State.Children)
	}
}

// TestProbeGlobSubtreeWithMatchesAppearOrVanishIsAChange is the contrasting
// case: once a subtree actually contains a file matching the glob,
// appearing or vanishing invalidates the cached result.
func TestProbeGlobSubtreeWithMatchesAppearOrVanishIsAChange(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub1"), 0700); err != nil {
		t.Fatal(err)
	}

	pieces, err := glob.NewPieces("sub*")
	if err != nil {
		t.Fatal(err)
	}
	filePieces, err := glob.NewPieces("*.go")
	if err != nil {
		t.Fatal(err)
	}

	globPath := GlobPath{
		FileKind: FileModTimeKind,
		Root: RootedGlob{
			Root: pathutil.FilePathRoot{Kind: pathutil.RootRelative},
			Glob: GlobDir{Pieces: pieces, Sub: GlobFile{Pieces: filePieces}},
		},
	}

	set, err := BuildFileSet(dir, []MonitorPath{globPath}, hashing.AlgorithmSHA256, nil)
	if err != nil {
		t.Fatal(err)
	}

	// sub2 appears already containing a matching file.
	if err := os.MkdirAll(filepath.Join(dir, "sub2"), 0700); err != nil {
		t.Fatal(err)
	}
	writeTestFile(t, filepath.Join(dir, "sub2", "f.go"), "package y")

	changed, cacheChanged, updated, err := ProbeGlob(dir, set.Globs[0], hashing.AlgorithmSHA256, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Error("expected an appeared subdirectory with a matching file to be reported as a change")
	}
	if cacheChanged {
		t.Error("expected cacheChanged not to be raised when changed is already true")
	}

	// Now sub2 (which has a matching file) vanishes.
	if err := os.RemoveAll(filepath.Join(dir, "sub2")); err != nil {
		t.Fatal(err)
	}
	changed, _, updated, err = ProbeGlob(dir, updated, hashing.AlgorithmSHA256, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Error("expected a vanished subdirectory that had a matching file to be reported as a change")
	}
	if len(updated.State.Children) != 1 || updated.State.Children[0].Name != "sub1" {
		t.Errorf("expected sub2 to be dropped after vanishing with matches, got %+v", updated.State.Children)
	}
}
