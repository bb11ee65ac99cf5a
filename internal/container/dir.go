package container

import (
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sort"
)

// dirSource serves image files from a raw directory tree. The member
// list is captured at open time so iteration is restartable and
// deterministic; file bytes are read lazily per request.
type dirSource struct {
	root  string
	names []string // slash-separated, relative to root, sorted
}

func openDir(root string, cfg Config) (*dirSource, error) {
	var names []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if isDataName(rel, cfg.FileExt) {
			names = append(names, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan directory: %w", err)
	}
	sort.Strings(names)
	return &dirSource{root: root, names: names}, nil
}

func (s *dirSource) Entries() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		for _, name := range s.names {
			p := filepath.Join(s.root, filepath.FromSlash(name))
			e := Entry{
				Name:  name,
				bytes: func() ([]byte, error) { return os.ReadFile(p) },
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

// Close is a no-op; the directory backend holds no descriptors between
// reads.
func (s *dirSource) Close() error { return nil }
