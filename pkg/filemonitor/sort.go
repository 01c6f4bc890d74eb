package filemonitor

import (
	"sort"

	"golang.org/x/text/unicode/norm"

	"github.com/monocle-build/filemonitor/pkg/fsio"
)

// sortedBasenames returns entries sorted ascending by their NFC-normalized
// name, so that basenames which differ only in Unicode decomposition (as
// HFS+ volumes report them) still compare and merge consistently across
// platforms. Mirrors the normalization mutagen's scan.go applies before
// comparing basenames.
func sortedBasenames(entries []fsio.DirEntry) []fsio.DirEntry {
	sorted := make([]fsio.DirEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return norm.NFC.String(sorted[i].Name) < norm.NFC.String(sorted[j].Name)
	})
	return sorted
}
