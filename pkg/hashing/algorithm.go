// Package hashing provides the content-hash algorithm used to implement the
// read-file-hash collaborator: a deterministic, comparable digest of a
// file's contents, used by the snapshot builder and probe engine to detect
// content changes in FileHashed-kind monitor paths.
package hashing

import (
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
	"hash"
)

// Algorithm identifies a content-hashing algorithm.
type Algorithm uint8

const (
	// AlgorithmDefault indicates that the default algorithm should be used.
	// It is the zero value so that a zero-valued Algorithm behaves sensibly.
	AlgorithmDefault Algorithm = iota
	// AlgorithmSHA1 specifies SHA-1. It is supported primarily for reading
	// caches written against legacy monitor state.
	AlgorithmSHA1
	// AlgorithmSHA256 specifies SHA-256.
	AlgorithmSHA256
)

// defaultAlgorithm is the algorithm used when AlgorithmDefault is specified.
const defaultAlgorithm = AlgorithmSHA256

// IsDefault indicates whether or not the algorithm is AlgorithmDefault.
func (a Algorithm) IsDefault() bool {
	return a == AlgorithmDefault
}

// MarshalText implements encoding.TextMarshaler.MarshalText, so that an
// Algorithm can be embedded directly in a YAML monitor-path declaration.
func (a Algorithm) MarshalText() ([]byte, error) {
	var result string
	switch a {
	case AlgorithmDefault:
	case AlgorithmSHA1:
		result = "sha1"
	case AlgorithmSHA256:
		result = "sha256"
	default:
		result = "unknown"
	}
	return []byte(result), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.UnmarshalText.
func (a *Algorithm) UnmarshalText(textBytes []byte) error {
	switch text := string(textBytes); text {
	case "", "default":
		*a = AlgorithmDefault
	case "sha1":
		*a = AlgorithmSHA1
	case "sha256":
		*a = AlgorithmSHA256
	default:
		return fmt.Errorf("unknown hashing algorithm specification: %s", text)
	}
	return nil
}

// Description returns a human-readable description of the algorithm.
func (a Algorithm) Description() string {
	switch a {
	case AlgorithmDefault:
		return "Default"
	case AlgorithmSHA1:
		return "SHA-1"
	case AlgorithmSHA256:
		return "SHA-256"
	default:
		return "Unknown"
	}
}

// Factory returns a constructor for the algorithm's hash.Hash implementation.
// AlgorithmDefault resolves to defaultAlgorithm. It panics on an unknown
// algorithm value, since that indicates a programmer error (an invalid
// Algorithm should be rejected well before this point).
func (a Algorithm) Factory() func() hash.Hash {
	if a == AlgorithmDefault {
		a = defaultAlgorithm
	}
	switch a {
	case AlgorithmSHA1:
		return sha1.New
	case AlgorithmSHA256:
		return sha256.New
	default:
		panic(fmt.Sprintf("unknown hashing algorithm: %d", a))
	}
}
