package container

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// decompressor wraps a compressed stream. The returned closer releases
// decoder state and may be nil.
type decompressor func(io.Reader) (io.Reader, func(), error)

func decompressGzip(r io.Reader) (io.Reader, func(), error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, nil, err
	}
	return zr, func() { zr.Close() }, nil
}

func decompressZstd(r io.Reader) (io.Reader, func(), error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, nil, err
	}
	return zr, zr.Close, nil
}

func decompressSnappy(r io.Reader) (io.Reader, func(), error) {
	return snappy.NewReader(r), nil, nil
}

// tarSource serves image files from a compressed tar stream. Tar has
// no member index, so the stream is scanned once at open and data
// members are held in memory; BTF containers stay small enough for
// this since the pixel payloads remain in their encoded form.
type tarSource struct {
	names []string // tar order
	data  map[string][]byte
}

func openTar(path string, cfg Config, dc decompressor) (*tarSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open container: %w", err)
	}
	defer f.Close()

	r, done, err := dc(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress %q: %v", ErrFormat, path, err)
	}
	if done != nil {
		defer done()
	}

	s := &tarSource{data: make(map[string][]byte)}
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read tar %q: %v", ErrFormat, path, err)
		}
		if hdr.Typeflag != tar.TypeReg || !isDataName(hdr.Name, cfg.FileExt) {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("%w: read tar member %q: %v", ErrFormat, hdr.Name, err)
		}
		s.names = append(s.names, hdr.Name)
		s.data[hdr.Name] = data
	}
	return s, nil
}

func (s *tarSource) Entries() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		for _, name := range s.names {
			data := s.data[name]
			e := Entry{
				Name:  name,
				bytes: func() ([]byte, error) { return data, nil },
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

// Close drops the cached members.
func (s *tarSource) Close() error {
	s.names = nil
	s.data = nil
	return nil
}
