package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"minimarket/domain"
)

// FileStore is a JSON file-backed backend. It keeps the whole store in memory
// and rewrites the file after every mutation.
type FileStore struct {
	*InMemoryStore
	writeMu sync.Mutex
	path    string
}

// compile-time assertions
var (
	_ domain.CatalogStore = (*FileStore)(nil)
	_ domain.OrderStore   = (*FileStore)(nil)
	_ domain.UserStore    = (*FileStore)(nil)
)

// NewFileStore constructs a FileStore at the given path. If the file exists it will be loaded.
func NewFileStore(path string, opts ...Option) (*FileStore, error) {
	s := &FileStore{
		InMemoryStore: NewInMemoryStore(opts...),
		path:          path,
	}
	if err := s.loadFromFile(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) loadFromFile() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// no file yet; that's fine
			return nil
		}
		return err
	}
	if len(b) == 0 {
		return nil
	}
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("read store file %s: %w", s.path, err)
	}
	s.InMemoryStore.load(doc)
	return nil
}

func (s *FileStore) saveToFile() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(s.InMemoryStore.export(), "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// commit applies a mutation to the in-memory store and writes the file. If the
// write fails the in-memory store goes back to what it held before.
func (s *FileStore) commit(mutate func() error) error {
	before := s.InMemoryStore.export()
	if err := mutate(); err != nil {
		return err
	}
	if err := s.saveToFile(); err != nil {
		s.InMemoryStore.replace(before)
		return fmt.Errorf("persist store: %w", err)
	}
	return nil
}

func (s *FileStore) Create(ctx context.Context, product domain.Product) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.commit(func() error {
		return s.InMemoryStore.Create(ctx, product)
	})
}

func (s *FileStore) Update(ctx context.Context, id string, product domain.Product) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.commit(func() error {
		return s.InMemoryStore.Update(ctx, id, product)
	})
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.commit(func() error {
		return s.InMemoryStore.Delete(ctx, id)
	})
}

// BulkImport keeps the valid products of a partially failed import, as the
// in-memory store does, but only once they are on disk.
func (s *FileStore) BulkImport(ctx context.Context, products []domain.Product) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	var collected error
	err := s.commit(func() error {
		collected = s.InMemoryStore.BulkImport(ctx, products)
		return nil
	})
	if err != nil {
		return err
	}
	return collected
}

// CreateOrder stores the order and makes it durable before returning it. If
// the file cannot be written the order is forgotten and the error returned.
func (s *FileStore) CreateOrder(ctx context.Context, payload domain.OrderPayload) (domain.Order, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	var o domain.Order
	err := s.commit(func() error {
		var err error
		o, err = s.InMemoryStore.CreateOrder(ctx, payload)
		return err
	})
	if err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (s *FileStore) CreateUser(ctx context.Context, user domain.User) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.commit(func() error {
		return s.InMemoryStore.CreateUser(ctx, user)
	})
}
