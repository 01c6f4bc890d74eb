// Package glob matches a single path component (a "piece", e.g. "*.go" or
// "build") against a basename. It deliberately does not support the
// recursive "**" form — that is unsupported at the RootedGlob level, not
// merely unimplemented here.
package glob

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

// Pieces is a single-component glob pattern, validated at construction
// time rather than at every match.
type Pieces struct {
	pattern string
}

// NewPieces parses and validates a single-path-component glob pattern. It
// rejects patterns containing a path separator or a recursive "**" segment,
// since both are meaningless (or explicitly unsupported) at this level.
func NewPieces(pattern string) (Pieces, error) {
	if pattern == "" {
		return Pieces{}, errors.New("empty glob pattern")
	}
	if strings.ContainsAny(pattern, "/\\") {
		return Pieces{}, errors.Errorf("glob pattern %q must match a single path component", pattern)
	}
	if strings.Contains(pattern, "**") {
		return Pieces{}, errors.Errorf("recursive glob pattern %q is not supported", pattern)
	}
	if _, err := doublestar.Match(pattern, "probe"); err != nil {
		return Pieces{}, errors.Wrapf(err, "invalid glob pattern %q", pattern)
	}
	return Pieces{pattern: pattern}, nil
}

// String returns the original pattern text.
func (p Pieces) String() string {
	return p.pattern
}

// GobEncode implements gob.GobEncoder, so that Pieces, whose only field is
// unexported, can be persisted inside a cache file.
func (p Pieces) GobEncode() ([]byte, error) {
	return []byte(p.pattern), nil
}

// GobDecode implements gob.GobDecoder.
func (p *Pieces) GobDecode(data []byte) error {
	p.pattern = string(data)
	return nil
}

// MatchPieces reports whether basename matches the glob pieces.
func MatchPieces(pieces Pieces, basename string) bool {
	matched, _ := doublestar.Match(pieces.pattern, basename)
	return matched
}
