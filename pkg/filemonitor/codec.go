package filemonitor

import (
	"bytes"
	"encoding/gob"
	"os"
	"reflect"

	"github.com/pkg/errors"

	"github.com/monocle-build/filemonitor/pkg/fsio"
)

// FormatVersion identifies the on-disk cache file layout. A mismatch is
// treated as an unreadable cache (rebuild from scratch) rather than an
// attempt at best-effort migration.
const FormatVersion = "filemonitor-cache-v1"

func init() {
	// The glob tree's Sub field is interface-typed (Glob), so gob needs the
	// concrete variants registered to encode and decode it. This is
	// separate from, and does not substitute for, registering caller key
	// and result types: a caller whose key or result type contains an
	// interface-typed field must register its concrete variants itself.
	gob.Register(GlobDir{})
	gob.Register(GlobFile{})
	gob.Register(GlobDirTrailing{})
	gob.Register(GlobDirRecursive{})
}

// wireCacheFile is the envelope persisted to disk. Key and Result are kept
// as their own gob-encoded byte strings, nested inside the outer gob
// stream, rather than encoded as direct fields of an interface type. This
// lets ReadCacheFile fully decode FormatVersion and Files while keeping Key
// and Result as raw bytes (decoded later by KeyEquals/DecodeKey and
// DecodeResult), so a caller that only needs Check()'s boolean answer never
// pays to decode a (potentially large) cached result.
type wireCacheFile struct {
	FormatVersion string
	// KeyType and ResultType are the Go type names (reflect.TypeOf(...).String())
	// of the values originally passed to WriteCacheFile. They let KeyEquals
	// and DecodeResult reject a caller-type change with a direct, readable
	// error instead of relying solely on gob's decode-time type check.
	KeyType    string
	ResultType string
	Key        []byte
	Files      FileSet
	Result     []byte
}

// CacheFile is a decoded on-disk monitor cache, with Result left as an
// opaque gob-encoded blob until DecodeResult is called.
type CacheFile struct {
	Files FileSet

	keyType    string
	resultType string
	key        []byte
	result     []byte
}

// WriteCacheFile atomically writes a cache file recording key, files, and
// result. key and result may be any gob-encodable value; if either embeds
// an interface-typed field, the caller is responsible for having called
// gob.Register on its concrete variants before calling WriteCacheFile or
// ReadCacheFile's KeyEquals/DecodeResult.
func WriteCacheFile(path string, key, result any, files FileSet) error {
	keyBytes, err := gobEncode(key)
	if err != nil {
		return errors.Wrap(err, "unable to encode cache key")
	}
	resultBytes, err := gobEncode(result)
	if err != nil {
		return errors.Wrap(err, "unable to encode cached result")
	}

	wire := wireCacheFile{
		FormatVersion: FormatVersion,
		KeyType:       reflect.TypeOf(key).String(),
		ResultType:    reflect.TypeOf(result).String(),
		Key:           keyBytes,
		Files:         files,
		Result:        resultBytes,
	}
	var buffer bytes.Buffer
	if err := gob.NewEncoder(&buffer).Encode(wire); err != nil {
		return errors.Wrap(err, "unable to encode cache file")
	}

	return fsio.WriteFileAtomic(path, buffer.Bytes(), 0600)
}

// ReadCacheFile reads and decodes the cache file at path, decoding Files
// (and the header) eagerly but leaving Result undecoded until DecodeResult
// is called.
func ReadCacheFile(path string) (*CacheFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var wire wireCacheFile
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&wire); err != nil {
		return nil, errors.Wrap(err, "cache file is unreadable or in an incompatible format")
	}
	if wire.FormatVersion != FormatVersion {
		return nil, errors.Errorf("unsupported cache file format version %q", wire.FormatVersion)
	}

	return &CacheFile{
		Files:      wire.Files,
		keyType:    wire.KeyType,
		resultType: wire.ResultType,
		key:        wire.Key,
		result:     wire.Result,
	}, nil
}

// KeyEquals reports whether the cache file's stored key is deep-equal to
// key, by decoding the stored key into a fresh value of key's concrete
// type. A type-name mismatch or decode failure (e.g. the caller changed
// their key's type between runs) is reported as an error rather than
// silently treated as a mismatch, since it indicates the cache is
// unreadable rather than merely stale.
func (c *CacheFile) KeyEquals(key any) (bool, error) {
	wantType := reflect.TypeOf(key).String()
	if c.keyType != wantType {
		return false, errors.Errorf("cached key has type %q, expected %q", c.keyType, wantType)
	}
	target := reflect.New(reflect.TypeOf(key))
	if err := gobDecode(c.key, target.Interface()); err != nil {
		return false, errors.Wrap(err, "unable to decode cached key")
	}
	return reflect.DeepEqual(target.Elem().Interface(), key), nil
}

// DecodeResult decodes the cache file's stored result into target, which
// must be a pointer to a value of the original result's concrete type.
func (c *CacheFile) DecodeResult(target any) error {
	wantType := reflect.TypeOf(target).Elem().String()
	if c.resultType != wantType {
		return errors.Errorf("cached result has type %q, expected %q", c.resultType, wantType)
	}
	return errors.Wrap(gobDecode(c.result, target), "unable to decode cached result")
}

// DecodeKey decodes the cache file's stored key into target, which must be
// a pointer to a value of the original key's concrete type. It exists
// alongside KeyEquals for callers that supply their own key-equality
// predicate instead of reflect.DeepEqual.
func (c *CacheFile) DecodeKey(target any) error {
	wantType := reflect.TypeOf(target).Elem().String()
	if c.keyType != wantType {
		return errors.Errorf("cached key has type %q, expected %q", c.keyType, wantType)
	}
	return errors.Wrap(gobDecode(c.key, target), "unable to decode cached key")
}

// persistFiles atomically rewrites the cache file at path, keeping the
// previously encoded key and result bytes but replacing Files with a
// freshly probed snapshot. Used for Check's opportunistic persist: a probe
// can discover state worth updating (e.g. a newly appeared directory with
// no matching entries) without that update meaning the cached result
// itself is invalid.
func (c *CacheFile) persistFiles(path string, files FileSet) error {
	wire := wireCacheFile{
		FormatVersion: FormatVersion,
		KeyType:       c.keyType,
		ResultType:    c.resultType,
		Key:           c.key,
		Files:         files,
		Result:        c.result,
	}
	var buffer bytes.Buffer
	if err := gob.NewEncoder(&buffer).Encode(wire); err != nil {
		return errors.Wrap(err, "unable to encode cache file")
	}
	return fsio.WriteFileAtomic(path, buffer.Bytes(), 0600)
}

func gobEncode(value any) ([]byte, error) {
	var buffer bytes.Buffer
	if err := gob.NewEncoder(&buffer).Encode(value); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func gobDecode(data []byte, target any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(target)
}
