// Package settings stores runtime query settings in a YAML (or JSON) file.
package settings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	domset "github.com/kailas-cloud/hybridsync/internal/domain/settings"
)

// FileSource reads settings from a file and writes them back on Save.
// The file is parsed again only when its modification time changes.
type FileSource struct {
	path     string
	defaults domset.Settings

	mu      sync.Mutex
	modTime time.Time
	cached  domset.Settings
	loaded  bool
}

// NewFileSource creates a file-backed source. Keys missing from the file
// take their value from defaults; a missing file yields defaults.
func NewFileSource(path string, defaults domset.Settings) *FileSource {
	return &FileSource{path: path, defaults: defaults}
}

// Load returns the settings stored in the file.
func (f *FileSource) Load(ctx context.Context) (domset.Settings, error) {
	if err := ctx.Err(); err != nil {
		return domset.Settings{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	info, err := os.Stat(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return f.defaults, nil
	}
	if err != nil {
		return domset.Settings{}, fmt.Errorf("stat %s: %w", f.path, err)
	}
	if f.loaded && info.ModTime().Equal(f.modTime) {
		return f.cached, nil
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return domset.Settings{}, fmt.Errorf("read %s: %w", f.path, err)
	}
	s := f.defaults
	if err := yaml.Unmarshal(data, &s); err != nil {
		return domset.Settings{}, fmt.Errorf("parse %s: %w", f.path, err)
	}

	f.cached, f.modTime, f.loaded = s, info.ModTime(), true
	return s, nil
}

// Save replaces the file contents atomically.
func (f *FileSource) Save(ctx context.Context, s domset.Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace %s: %w", f.path, err)
	}

	f.loaded = false
	return nil
}
