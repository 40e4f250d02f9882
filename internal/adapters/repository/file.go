package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/peloton/internal/domain/model"
)

// File stores each key as <root>/<escaped key>.json.
type File struct {
	mu   sync.Mutex
	root string
}

// NewFile creates the root directory if needed.
func NewFile(root string) (*File, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &File{root: root}, nil
}

// Path returns the file backing key.
func (f *File) Path(key string) string {
	return filepath.Join(f.root, url.PathEscape(key)+".json")
}

// Load implements roster.Repository.
func (f *File) Load(_ context.Context, key string) (rosters []model.Roster, found bool, err error) {
	defer func(start time.Time) { observe(BackendFile, "load", start, err) }(time.Now())
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := os.ReadFile(f.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	rosters, err = decode(key, b)
	if err != nil {
		return nil, false, err
	}
	return rosters, true, nil
}

// Save implements roster.Repository. The document is written to a temp file
// and renamed so readers never see a torn write.
func (f *File) Save(_ context.Context, key string, rosters []model.Roster) (err error) {
	defer func(start time.Time) { observe(BackendFile, "save", start, err) }(time.Now())
	body, err := encode(rosters)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(f.root, ".rosters-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), f.Path(key)); err != nil {
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

// Close is a no-op; files are not held open.
func (f *File) Close() error { return nil }
