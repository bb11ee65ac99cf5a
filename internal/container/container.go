// Package container abstracts the storage shapes a BTF archive can
// live in: a raw directory of image files, a compressed container of
// image files (.zip, .tar.gz, .tar.zst, .tar.sz), or a packed NumPy
// .npz container holding the pixel data as raw arrays.
//
// A Source lists data members with their names and byte accessors; it
// knows nothing about angles. Filtering to data members (extension or
// key-type) happens here, index semantics live in the btf package.
package container

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"strings"
)

// ErrFormat is returned when a path cannot be parsed as a supported
// container shape, or when a packed member is malformed.
var ErrFormat = errors.New("btf: unsupported container format")

// Config selects which members of a container count as data.
type Config struct {
	// FileExt is the image file extension to accept, including the
	// dot. Ignored by the packed backend, which filters on .npy keys.
	FileExt string

	// AngleSeparator joins angle fields in synthesized member keys for
	// aggregate packed containers.
	AngleSeparator string
}

// RawDesc describes a pre-decoded pixel member from a packed
// container: shape plus exactly one of U8 or Float holding the
// channel-last samples in the container's native red-green-blue order.
type RawDesc struct {
	Height   int
	Width    int
	Channels int
	U8       []uint8
	Float    []float32
}

// Entry is one data member of a container: its archive-internal name
// or key plus an accessor for its payload. Exactly one of the
// accessors is live; IsRaw reports which.
type Entry struct {
	// Name is the member name or key; angle metadata is embedded here.
	Name string

	bytes func() ([]byte, error)
	raw   func() (*RawDesc, error)
}

// IsRaw reports whether the entry carries pre-decoded pixel data
// rather than an encoded image file.
func (e Entry) IsRaw() bool { return e.raw != nil }

// Bytes reads the member's encoded image bytes. The returned slice
// must be treated as read-only; backends may serve cached bytes.
func (e Entry) Bytes() ([]byte, error) {
	if e.bytes == nil {
		return nil, fmt.Errorf("%w: member %q has no encoded bytes", ErrFormat, e.Name)
	}
	return e.bytes()
}

// Raw returns the member's pre-decoded pixel data.
func (e Entry) Raw() (*RawDesc, error) {
	if e.raw == nil {
		return nil, fmt.Errorf("%w: member %q is not a packed array", ErrFormat, e.Name)
	}
	return e.raw()
}

// Source lists the data members of one container. Entries is finite
// and restartable: iterating again re-yields the same members in the
// same order. Close releases the underlying resources and is
// idempotent; entries must not be read after Close.
type Source interface {
	Entries() iter.Seq2[Entry, error]
	Close() error
}

// Open opens the container at path, selecting the backend from the
// path shape: a directory, a .zip of image files, a compressed tar
// (.tar.gz/.tgz, .tar.zst, .tar.sz), or a packed .npz. A missing path
// wraps fs.ErrNotExist; an unrecognized shape is ErrFormat.
func Open(path string, cfg Config) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat container: %w", err)
	}
	if info.IsDir() {
		return openDir(path, cfg)
	}

	name := strings.ToLower(path)
	switch {
	case strings.HasSuffix(name, ".zip"):
		return openZip(path, cfg)
	case strings.HasSuffix(name, ".npz"):
		return openPacked(path, cfg)
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return openTar(path, cfg, decompressGzip)
	case strings.HasSuffix(name, ".tar.zst"):
		return openTar(path, cfg, decompressZstd)
	case strings.HasSuffix(name, ".tar.sz"):
		return openTar(path, cfg, decompressSnappy)
	default:
		return nil, fmt.Errorf("%w: %q", ErrFormat, path)
	}
}

// isDataName reports whether a member name passes the extension filter
// and is not a directory marker or hidden metadata file.
func isDataName(name, ext string) bool {
	if name == "" || strings.HasSuffix(name, "/") {
		return false
	}
	if strings.HasPrefix(name, "__MACOSX/") {
		return false
	}
	base := name[strings.LastIndexByte(name, '/')+1:]
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.HasSuffix(strings.ToLower(base), strings.ToLower(ext))
}
