package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/Rani367/Hativon-sub000/internal/model"
	"github.com/Rani367/Hativon-sub000/internal/util"
)

// fileWatcher polls a document and reports each distinct content change.
type fileWatcher struct {
	path     string
	interval time.Duration
	onChange func(model.Fields)

	mu   sync.Mutex
	hash string
}

func newFileWatcher(path string, interval time.Duration, onChange func(model.Fields)) *fileWatcher {
	return &fileWatcher{path: path, interval: interval, onChange: onChange}
}

// check reads the file and calls onChange when its content differs from the
// last seen or written version.
func (w *fileWatcher) check() error {
	data, err := os.ReadFile(w.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	hash := util.ContentHash(data)
	w.mu.Lock()
	if hash == w.hash {
		w.mu.Unlock()
		return nil
	}
	w.hash = hash
	w.mu.Unlock()

	w.onChange(parseDocument(w.path, data))
	return nil
}

// write replaces the document without reporting it as an edit.
func (w *fileWatcher) write(f model.Fields) error {
	data, err := renderDocument(f)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := os.WriteFile(w.path, data, 0o644); err != nil {
		return err
	}
	w.hash = util.ContentHash(data)
	return nil
}

func (w *fileWatcher) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.check(); err != nil {
				editLogger.Warn().Err(err).Str("path", w.path).Msg("Failed to read document")
			}
		}
	}
}
