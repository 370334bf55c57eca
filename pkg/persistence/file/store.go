package file

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// recordDir keeps one JSON file per record under root/<kind>.
type recordDir[T any] struct {
	dir      string
	kind     string
	notFound error
	mu       sync.RWMutex
}

func newRecordDir[T any](root, kind string, notFound error) *recordDir[T] {
	return &recordDir[T]{
		dir:      path.Join(root, kind),
		kind:     kind,
		notFound: notFound,
	}
}

func (d *recordDir[T]) filePath(id string) string {
	return filepath.Clean(path.Join(d.dir, filepath.Base(id)+".json"))
}

func (d *recordDir[T]) get(id string) (*T, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.read(d.filePath(id), id)
}

func (d *recordDir[T]) read(filePath, id string) (*T, error) {
	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, d.notFound
		}

		return nil, fmt.Errorf("failed to fetch %s %s: %w", d.kind, id, err)
	}

	var record T

	err = json.Unmarshal(body, &record)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s %s: %w", d.kind, id, err)
	}

	return &record, nil
}

func (d *recordDir[T]) all() ([]*T, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	jsonFiles, err := fs.Glob(os.DirFS(d.dir), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s files: %w", d.kind, err)
	}

	records := make([]*T, 0, len(jsonFiles))

	for _, name := range jsonFiles {
		record, err := d.read(path.Join(d.dir, name), strings.TrimSuffix(name, ".json"))
		if err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	return records, nil
}

func (d *recordDir[T]) save(id string, record *T) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	err := os.MkdirAll(d.dir, 0750)
	if err != nil {
		return fmt.Errorf("failed to create %s directory: %w", d.kind, err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s %s: %w", d.kind, id, err)
	}

	return os.WriteFile(d.filePath(id), data, 0600)
}

func (d *recordDir[T]) delete(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	err := os.Remove(d.filePath(id))
	if err != nil && os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", d.kind, id, err)
	}

	return nil
}
