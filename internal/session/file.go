package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileBackend stores all keys in one JSON document. Writes go through a temp
// file and rename so readers in other processes never see a torn file.
// Changes are detected across processes by polling the file's mtime and size.
type FileBackend struct {
	path     string
	interval time.Duration
	mu       sync.Mutex
}

// NewFileBackend creates a backend at path, polling every interval.
func NewFileBackend(path string, interval time.Duration) *FileBackend {
	if interval <= 0 {
		interval = time.Second
	}
	return &FileBackend{path: path, interval: interval}
}

func (f *FileBackend) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (f *FileBackend) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.load()
	if err != nil {
		values = map[string]string{}
	}
	values[key] = value
	return f.save(values)
}

func (f *FileBackend) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.load()
	if err != nil {
		values = map[string]string{}
	}
	for _, k := range keys {
		delete(values, k)
	}
	return f.save(values)
}

// Broadcast is a no-op: the rename itself is the signal other processes poll for.
func (f *FileBackend) Broadcast(context.Context, string, string) error {
	return nil
}

// Watch polls the file for modifications. The file carries no origin, so a
// store also sees its own writes; re-reading is idempotent.
func (f *FileBackend) Watch(ctx context.Context, _ string, _ string, onChange func()) (func(), error) {
	last := f.stamp()
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if cur := f.stamp(); cur != last {
					last = cur
					onChange()
				}
			}
		}
	}()
	return cancel, nil
}

type fileStamp struct {
	mod  time.Time
	size int64
	ok   bool
}

func (f *FileBackend) stamp() fileStamp {
	info, err := os.Stat(f.path)
	if err != nil {
		return fileStamp{}
	}
	return fileStamp{mod: info.ModTime(), size: info.Size(), ok: true}
}

func (f *FileBackend) load() (map[string]string, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	values := map[string]string{}
	if len(raw) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	return values, nil
}

func (f *FileBackend) save(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	raw, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*.json")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}
