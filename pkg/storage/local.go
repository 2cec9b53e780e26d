package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes proofs under a directory served at baseURL.
type LocalStore struct {
	root    string
	baseURL string
	maxSize int64
}

func NewLocalStore(root, baseURL string, maxSize int64) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalStore{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		maxSize: maxSize,
	}, nil
}

// Put streams the body to a temp file and renames it into place so a
// partial upload is never visible under its key.
func (l *LocalStore) Put(ctx context.Context, obj *Object) (*StoredObject, error) {
	if !validKey(obj.Key) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, obj.Key)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dst := filepath.Join(l.root, filepath.FromSlash(obj.Key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create proof directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	body := obj.Body
	if l.maxSize > 0 {
		body = io.LimitReader(obj.Body, l.maxSize+1)
	}
	size, err := io.Copy(tmp, body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write proof: %w", err)
	}
	if l.maxSize > 0 && size > l.maxSize {
		return nil, ErrTooLarge
	}

	if err := os.Rename(tmp.Name(), dst); err != nil {
		return nil, fmt.Errorf("failed to store proof: %w", err)
	}

	return &StoredObject{
		Key:  obj.Key,
		URL:  l.baseURL + "/" + obj.Key,
		Size: size,
	}, nil
}

func (l *LocalStore) Remove(ctx context.Context, key string) error {
	if !validKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	err := os.Remove(filepath.Join(l.root, filepath.FromSlash(key)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (l *LocalStore) Exists(ctx context.Context, key string) (bool, error) {
	if !validKey(key) {
		return false, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	_, err := os.Stat(filepath.Join(l.root, filepath.FromSlash(key)))
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}
