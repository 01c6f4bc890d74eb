package fsio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/monocle-build/filemonitor/pkg/hashing"
)

func TestWriteFileAtomicAndReadBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	if err := WriteFileAtomic(path, []byte("hello"), 0600); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Errorf("got %q, want %q", data, "hello")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected no leftover temporary files, found %d entries", len(entries))
	}
}

func TestFileExistsAndDirExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	if err := os.WriteFile(file, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	if !FileExists(file) {
		t.Error("expected file to exist")
	}
	if DirExists(file) {
		t.Error("file should not be reported as a directory")
	}
	if !DirExists(dir) {
		t.Error("expected directory to exist")
	}
	if FileExists(filepath.Join(dir, "missing")) {
		t.Error("missing path should not exist")
	}
}

func TestStat(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	if err := os.WriteFile(file, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	isFile, isDir, _, err := Stat(file)
	if err != nil {
		t.Fatal(err)
	}
	if !isFile || isDir {
		t.Errorf("got isFile=%v isDir=%v, want isFile=true isDir=false", isFile, isDir)
	}

	isFile, isDir, _, err = Stat(filepath.Join(dir, "missing"))
	if err != nil {
		t.Fatal(err)
	}
	if isFile || isDir {
		t.Error("missing path should report neither file nor directory")
	}
}

func TestHashFileDeterministic(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	if err := os.WriteFile(file, []byte("content"), 0600); err != nil {
		t.Fatal(err)
	}

	h1, err := HashFile(file, hashing.AlgorithmSHA256)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := HashFile(file, hashing.AlgorithmSHA256)
	if err != nil {
		t.Fatal(err)
	}
	if string(h1) != string(h2) {
		t.Error("expected deterministic hash")
	}
}

func TestReadDirNames(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a", "b"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0600); err != nil {
			t.Fatal(err)
		}
	}
	names, err := ReadDirNames(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 {
		t.Errorf("expected 2 entries, got %d", len(names))
	}
}
