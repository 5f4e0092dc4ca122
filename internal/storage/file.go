package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"taskly/internal/tasks"
)

// File keeps the task blob in a single JSON file. Saves go through a temp
// file and a rename so a reader never sees a partial write.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Path() string { return f.path }

func (f *File) Load(context.Context) ([]tasks.Task, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return []tasks.Task{}, nil
	}
	if err != nil {
		return []tasks.Task{}, fmt.Errorf("reading %s: %w", f.path, err)
	}
	return decode(filepath.Base(f.path), data)
}

func (f *File) Save(_ context.Context, list []tasks.Task) error {
	data, err := tasks.Encode(list)
	if err != nil {
		return fmt.Errorf("encoding tasks: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o750); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming: %w", err)
	}
	return nil
}
