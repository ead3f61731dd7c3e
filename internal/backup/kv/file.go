package kv

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Rani367/Hativon-sub000/internal/util/compression"
)

const fileExt = ".bak"

// FileStore keeps every key in its own file under dir/namespace. Writes go
// through a temporary file and a rename so a crash never leaves a torn value.
type FileStore struct {
	dir        string
	compressor compression.Compressor
}

func NewFileStore(dir, namespace string, compressor compression.Compressor) (*FileStore, error) {
	if compressor == nil {
		compressor = compression.NoneCompressor{}
	}
	path := filepath.Join(dir, namespace)
	if err := os.MkdirAll(path, 0o700); err != nil {
		return nil, fmt.Errorf("error creating backup directory: %w", err)
	}
	return &FileStore{dir: path, compressor: compressor}, nil
}

func (f *FileStore) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(f.dir, url.PathEscape(key)+fileExt), nil
}

func (f *FileStore) Get(key string) ([]byte, error) {
	path, err := f.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return f.compressor.Decompress(data)
}

func (f *FileStore) Put(key string, value []byte) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(value)
	if err != nil {
		return fmt.Errorf("error compressing value: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (f *FileStore) Delete(key string) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (f *FileStore) Rename(from, to string) error {
	src, err := f.path(from)
	if err != nil {
		return err
	}
	dst, err := f.path(to)
	if err != nil {
		return err
	}
	err = os.Rename(src, dst)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

func (f *FileStore) Keys() ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, fileExt))
		if err != nil {
			continue
		}
		out = append(out, key)
	}
	sort.Strings(out)
	return out, nil
}
