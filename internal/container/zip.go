package container

import (
	"fmt"
	"io"
	"iter"

	"github.com/klauspost/compress/zip"
)

// zipSource serves image files from a zip container. The zip central
// directory doubles as the member index, so listing never rescans the
// file; member bytes are inflated lazily per read.
type zipSource struct {
	rc      *zip.ReadCloser
	members []*zip.File
}

func openZip(path string, cfg Config) (*zipSource, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open zip: %v", ErrFormat, err)
	}
	var members []*zip.File
	for _, f := range rc.File {
		if f.FileInfo().IsDir() || !isDataName(f.Name, cfg.FileExt) {
			continue
		}
		members = append(members, f)
	}
	return &zipSource{rc: rc, members: members}, nil
}

func (s *zipSource) Entries() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		for _, f := range s.members {
			e := Entry{
				Name:  f.Name,
				bytes: func() ([]byte, error) { return readZipMember(f) },
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

func (s *zipSource) Close() error {
	if s.rc == nil {
		return nil
	}
	err := s.rc.Close()
	s.rc = nil
	return err
}

func readZipMember(f *zip.File) ([]byte, error) {
	r, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open member %q: %w", f.Name, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read member %q: %w", f.Name, err)
	}
	return data, nil
}
