package bundle

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/rotisserie/eris"
)

var validName = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// FileStore keeps each bundle in <dir>/<name>.json.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "bundle: create dir %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(name string) (string, error) {
	if !validName.MatchString(name) {
		return "", eris.Errorf("bundle: invalid name %q", name)
	}
	return filepath.Join(s.dir, name+".json"), nil
}

// Load implements Store.
func (s *FileStore) Load(_ context.Context, name string) ([]byte, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "bundle: read %s", p)
	}
	return data, nil
}

// Save implements Store. The file is replaced atomically via rename so a
// crashed write never leaves a torn bundle behind.
func (s *FileStore) Save(_ context.Context, name string, data []byte) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return eris.Wrapf(err, "bundle: create temp for %s", name)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrapf(err, "bundle: write %s", name)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrapf(err, "bundle: sync %s", name)
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "bundle: close %s", name)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return eris.Wrapf(err, "bundle: rename %s", name)
	}
	return nil
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }
