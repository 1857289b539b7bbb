package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	m "autoplay.dev/pkg/autoplay/internal/model"
)

// storeSchemaVersion is the current paths-file schema. Files with any other
// version are rejected on load.
const storeSchemaVersion = 1

// ErrStoreFormat is returned for corrupt or version-mismatched paths files.
// Silently discarding recorded paths would be a data-loss bug, so load fails
// hard instead.
var ErrStoreFormat = errors.New("paths file format error")

// PathStore persists named, replayable action sequences keyed by level.
type PathStore interface {
	// Load returns the stored paths for the level. A missing file or a
	// level with no entry is a soft miss: empty result, nil error.
	Load(ctx context.Context, level string) ([]m.Path, error)

	// Save stages a path for persistence. It is additive and de-duplicated
	// by structural equality, not by name.
	Save(ctx context.Context, path m.Path) error

	// Flush writes staged changes atomically. Called once at session end.
	Flush(ctx context.Context) error
}

type storeFile struct {
	Version int                 `yaml:"version"`
	Levels  map[string][]m.Path `yaml:"levels"`
}

// FilePathStore is a PathStore backed by a single human-diffable YAML file.
type FilePathStore struct {
	filename string
	loaded   *storeFile
	dirty    bool
}

// NewFilePathStore constructs a FilePathStore for the given file.
func NewFilePathStore(filename string) *FilePathStore {
	return &FilePathStore{filename: filename}
}

// Load reads the file on first use and returns the level's paths sorted by
// recorded score, best first.
func (s *FilePathStore) Load(ctx context.Context, level string) ([]m.Path, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	stored := s.loaded.Levels[level]

	paths := make([]m.Path, len(stored))
	copy(paths, stored)

	sort.SliceStable(paths, func(i, j int) bool { return paths[i].Score > paths[j].Score })

	return paths, nil
}

// Save stages the path under a generated name unless a structurally equal
// path is already stored for its level.
func (s *FilePathStore) Save(ctx context.Context, path m.Path) error {
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	for _, existing := range s.loaded.Levels[path.Level] {
		if existing.Equal(path) {
			slog.Debug("path already stored", "level", path.Level, "name", existing.Name)
			return nil
		}
	}

	if path.Name == "" {
		path.Name = generatePathName(path)
	}

	s.loaded.Levels[path.Level] = append(s.loaded.Levels[path.Level], path)
	s.dirty = true

	slog.Info("path staged for save", "level", path.Level, "name", path.Name, "actions", len(path.Actions))

	return nil
}

// Flush atomically rewrites the file when staged changes exist.
func (s *FilePathStore) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.loaded == nil || !s.dirty {
		return nil
	}

	data, err := yaml.Marshal(s.loaded)
	if err != nil {
		return fmt.Errorf("encode paths file: %w", err)
	}

	dir := filepath.Dir(s.filename)

	tmp, err := os.CreateTemp(dir, ".paths-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp paths file: %w", err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return fmt.Errorf("write paths file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close paths file: %w", err)
	}

	if err := os.Rename(tmpName, s.filename); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace paths file: %w", err)
	}

	s.dirty = false

	slog.Info("paths file written", "file", s.filename)

	return nil
}

func (s *FilePathStore) ensureLoaded(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.loaded != nil {
		return nil
	}

	data, err := os.ReadFile(s.filename)
	if errors.Is(err, os.ErrNotExist) {
		s.loaded = &storeFile{Version: storeSchemaVersion, Levels: map[string][]m.Path{}}
		return nil
	}

	if err != nil {
		return fmt.Errorf("read paths file %s: %w", s.filename, err)
	}

	var file storeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrStoreFormat, s.filename, err)
	}

	if file.Version != storeSchemaVersion {
		return fmt.Errorf("%w: %s: unknown schema version %d (want %d)",
			ErrStoreFormat, s.filename, file.Version, storeSchemaVersion)
	}

	if file.Levels == nil {
		file.Levels = map[string][]m.Path{}
	}

	s.loaded = &file

	return nil
}

func generatePathName(path m.Path) string {
	return fmt.Sprintf("run-%s-%s", path.ContentHash()[:8], uuid.NewString()[:8])
}
