package filemonitor

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"testing"

	"github.com/monocle-build/filemonitor/pkg/filemonitor/glob"
)

type testCacheKey struct {
	Command string
	Args    []string
}

type testCacheResult struct {
	Output   string
	ExitCode int
}

func TestWriteAndReadCacheFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache")

	key := testCacheKey{Command: "build", Args: []string{"-v"}}
	result := testCacheResult{Output: "ok", ExitCode: 0}
	files := FileSet{Files: []MonitorStateFile{
		{FileKind: FileHashedKind, Path: "a.txt", Status: FileStatus{Kind: StatusFileHashed, Hash: []byte{1, 2, 3}}},
	}}

	if err := WriteCacheFile(path, key, result, files); err != nil {
		t.Fatal(err)
	}

	cached, err := ReadCacheFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if len(cached.Files.Files) != 1 || cached.Files.Files[0].Path != "a.txt" {
		t.Fatalf("unexpected decoded FileSet: %+v", cached.Files)
	}

	matches, err := cached.KeyEquals(key)
	if err != nil {
		t.Fatal(err)
	}
	if !matches {
		t.Error("expected stored key to equal original key")
	}

	matches, err = cached.KeyEquals(testCacheKey{Command: "test"})
	if err != nil {
		t.Fatal(err)
	}
	if matches {
		t.Error("expected differing key not to match")
	}

	var decodedResult testCacheResult
	if err := cached.DecodeResult(&decodedResult); err != nil {
		t.Fatal(err)
	}
	if decodedResult != result {
		t.Errorf("got %+v, want %+v", decodedResult, result)
	}
}

func TestReadCacheFileMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadCacheFile(filepath.Join(dir, "does-not-exist"))
	if err == nil {
		t.Fatal("expected an error for a missing cache file")
	}
}

func TestReadCacheFileRejectsWrongFormatVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache")

	wire := wireCacheFile{FormatVersion: "some-other-version"}
	data, err := gobEncode(wire)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadCacheFile(path); err == nil {
		t.Error("expected an error for a mismatched format version")
	}
}

// testCacheKeyWithInterface exercises the documented caveat that a caller
// whose key embeds an interface-typed field must register its concrete
// variants before round-tripping through the cache file.
type testCacheKeyWithInterface struct {
	Glob Glob
}

func TestCacheKeyWithRegisteredInterfaceFieldRoundTrips(t *testing.T) {
	gob.Register(GlobFile{})

	dir := t.TempDir()
	path := filepath.Join(dir, "cache")

	pieces, err := glob.NewPieces("*.go")
	if err != nil {
		t.Fatal(err)
	}
	key := testCacheKeyWithInterface{Glob: GlobFile{Pieces: pieces}}

	if err := WriteCacheFile(path, key, "result", FileSet{}); err != nil {
		t.Fatal(err)
	}
	cached, err := ReadCacheFile(path)
	if err != nil {
		t.Fatal(err)
	}
	matches, err := cached.KeyEquals(key)
	if err != nil {
		t.Fatal(err)
	}
	if !matches {
		t.Error("expected key with registered interface field to round-trip")
	}
}
