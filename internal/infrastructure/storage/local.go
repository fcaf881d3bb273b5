package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/devstudio/site-api/internal/domain"
)

// LocalStore writes uploads under Dir; the router serves them at /uploads/*.
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, serverURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(serverURL, "/") + "/uploads"}, nil
}

func (s *LocalStore) Dir() string { return s.dir }

func (s *LocalStore) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, key)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", domain.ErrStorageUnavailable(err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && size >= 0 && n != size {
		err = fmt.Errorf("short write: %d of %d bytes", n, size)
	}
	if err != nil {
		_ = os.Remove(path)
		return "", domain.ErrStorageUnavailable(err)
	}
	return s.baseURL + "/" + key, nil
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return domain.ErrStorageUnavailable(err)
	}
	return nil
}

// Ping checks the directory is still writable.
func (s *LocalStore) Ping(ctx context.Context) error {
	st, err := os.Stat(s.dir)
	if err != nil {
		return domain.ErrStorageUnavailable(err)
	}
	if !st.IsDir() {
		return domain.ErrStorageUnavailable(fmt.Errorf("%s is not a directory", s.dir))
	}
	return nil
}

// validateKey keeps keys flat: no separators, no dot segments.
func validateKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) || strings.ContainsRune(key, 0) {
		return domain.ErrInvalidUpload("invalid file name")
	}
	return nil
}
