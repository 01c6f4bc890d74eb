package glob

import "testing"

func TestMatchPieces(t *testing.T) {
	pieces, err := NewPieces("*.txt")
	if err != nil {
		t.Fatal(err)
	}
	if !MatchPieces(pieces, "a.txt") {
		t.Error("expected a.txt to match *.txt")
	}
	if MatchPieces(pieces, "a.go") {
		t.Error("expected a.go not to match *.txt")
	}
}

func TestNewPiecesRejectsSeparators(t *testing.T) {
	if _, err := NewPieces("a/b"); err == nil {
		t.Error("expected error for multi-component pattern")
	}
}

func TestNewPiecesRejectsRecursive(t *testing.T) {
	if _, err := NewPieces("**"); err == nil {
		t.Error("expected error for recursive glob pattern")
	}
}
