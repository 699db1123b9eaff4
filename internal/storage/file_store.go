package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/camuig/alphastream/internal/portfolio"
)

// FileStore keeps the profile document in a single JSON file. Writes go to a
// temporary file that is renamed over the original.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(ctx context.Context) (*portfolio.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *FileStore) Save(ctx context.Context, doc *portfolio.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read()
	if err != nil {
		return err
	}
	if current.Revision != doc.Revision {
		return fmt.Errorf("%w: stored revision %d, loaded %d",
			portfolio.ErrRevisionConflict, current.Revision, doc.Revision)
	}

	next := doc.Revision + 1
	body, err := encode(doc, next)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", portfolio.ErrStoreUnavailable, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(body); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write document: %v", portfolio.ErrStoreUnavailable, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: sync document: %v", portfolio.ErrStoreUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close document: %v", portfolio.ErrStoreUnavailable, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%w: replace document: %v", portfolio.ErrStoreUnavailable, err)
	}

	doc.Revision = next
	return nil
}

func (s *FileStore) read() (*portfolio.Document, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return portfolio.NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", portfolio.ErrStoreUnavailable, s.path, err)
	}
	defer f.Close()

	doc, err := portfolio.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", portfolio.ErrStoreUnavailable, err)
	}
	return doc, nil
}
