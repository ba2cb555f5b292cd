package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStore writes media below the static directory served at urlPrefix.
type LocalStore struct {
	root      string
	urlPrefix string
}

// NewLocalStore returns a store rooted at root.
func NewLocalStore(root, urlPrefix string) *LocalStore {
	return &LocalStore{root: root, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}
}

func (s *LocalStore) Name() string { return "local" }

// Put writes data to root/key, creating directories as needed.
func (s *LocalStore) Put(ctx context.Context, key string, data []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dst, err := s.resolve(key)
	if err != nil {
		return err
	}
	return writeBytesToFile(dst, data)
}

func (s *LocalStore) URL(key string) string {
	return s.urlPrefix + "/" + strings.TrimPrefix(path.Clean("/"+key), "/")
}

// resolve maps key into root and refuses keys that escape it.
func (s *LocalStore) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

func writeBytesToFile(dst string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
