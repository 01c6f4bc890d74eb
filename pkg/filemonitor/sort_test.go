package filemonitor

import (
	"testing"

	"github.com/monocle-build/filemonitor/pkg/fsio"
)

func TestSortedBasenamesOrdersAscending(t *testing.T) {
	entries := []fsio.DirEntry{
		{Name: "banana"},
		{Name: "apple"},
		{Name: "cherry", IsDir: true},
	}
	sorted := sortedBasenames(entries)
	if sorted[0].Name != "apple" || sorted[1].Name != "banana" || sorted[2].Name != "cherry" {
		t.Errorf("got %+v, want sorted [apple banana cherry]", sorted)
	}
	if !sorted[2].IsDir {
		t.Error("expected IsDir to be preserved through sorting")
	}
}
