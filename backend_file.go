package authstate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileBackend persists entries as a single JSON document on disk. The whole
// map is loaded at open and rewritten on every mutation; token-scale data
// stays tiny, so simplicity wins over incremental writes.
type FileBackend struct {
	mu    sync.Mutex
	path  string
	items map[string]string
}

var _ Backend = (*FileBackend)(nil)

// NewFileBackend opens (or creates) the JSON store at path.
func NewFileBackend(path string) (*FileBackend, error) {
	fb := &FileBackend{
		path:  path,
		items: make(map[string]string),
	}

	if err := fb.load(); err != nil {
		return nil, err
	}

	return fb, nil
}

func (f *FileBackend) Name() string { return "file" }

func (f *FileBackend) load() error {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", f.path, err)
	}

	if len(raw) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, &f.items); err != nil {
		return fmt.Errorf("failed to parse %s: %w", f.path, err)
	}

	return nil
}

// save rewrites the document through a temp file and rename so a crash
// mid-write cannot leave a truncated store behind.
func (f *FileBackend) save() error {
	raw, err := json.Marshal(f.items)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".authstate-*")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), f.path)
}

func (f *FileBackend) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	value, ok := f.items[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (f *FileBackend) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.items[key] = value
	return f.save()
}

func (f *FileBackend) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.items, key)
	return f.save()
}

func (f *FileBackend) Keys(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	keys := make([]string, 0, len(f.items))
	for k := range f.items {
		keys = append(keys, k)
	}
	return keys, nil
}

func (f *FileBackend) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.items = make(map[string]string)
	return f.save()
}
