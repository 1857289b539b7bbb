package adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "autoplay.dev/pkg/autoplay/internal/model"
)

func storedPath(name string, score int) m.Path {
	return m.Path{
		Name:     name,
		Level:    "plains-1",
		Checksum: "abc123",
		Score:    score,
		Actions: []m.Action{
			m.NewAction(m.ControlRight, m.ControlRun).Hold(score),
		},
	}
}

func TestPathStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	filename := filepath.Join(t.TempDir(), "paths.yaml")

	store := NewFilePathStore(filename)
	require.NoError(t, store.Save(ctx, storedPath("slow", 100)))
	require.NoError(t, store.Save(ctx, storedPath("fast", 300)))
	require.NoError(t, store.Flush(ctx))

	reread := NewFilePathStore(filename)

	paths, err := reread.Load(ctx, "plains-1")
	require.NoError(t, err)
	require.Len(t, paths, 2)

	// Best score first.
	assert.Equal(t, "fast", paths[0].Name)
	assert.Equal(t, "slow", paths[1].Name)
	assert.Equal(t, 300, paths[0].TickLength())
	assert.True(t, paths[0].ValidFor("plains-1", "abc123"))
}

func TestPathStoreDeduplicates(t *testing.T) {
	ctx := context.Background()
	store := NewFilePathStore(filepath.Join(t.TempDir(), "paths.yaml"))

	require.NoError(t, store.Save(ctx, storedPath("first", 100)))
	require.NoError(t, store.Save(ctx, storedPath("again", 100)))

	paths, err := store.Load(ctx, "plains-1")
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, "first", paths[0].Name)
}

func TestPathStoreGeneratesNames(t *testing.T) {
	ctx := context.Background()
	store := NewFilePathStore(filepath.Join(t.TempDir(), "paths.yaml"))

	unnamed := storedPath("", 100)
	require.NoError(t, store.Save(ctx, unnamed))

	paths, err := store.Load(ctx, "plains-1")
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.NotEmpty(t, paths[0].Name)
}

func TestPathStoreMissingFileIsSoftMiss(t *testing.T) {
	store := NewFilePathStore(filepath.Join(t.TempDir(), "nope.yaml"))

	paths, err := store.Load(context.Background(), "plains-1")
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestPathStoreUnknownLevelIsSoftMiss(t *testing.T) {
	ctx := context.Background()
	filename := filepath.Join(t.TempDir(), "paths.yaml")

	store := NewFilePathStore(filename)
	require.NoError(t, store.Save(ctx, storedPath("fast", 300)))
	require.NoError(t, store.Flush(ctx))

	paths, err := NewFilePathStore(filename).Load(ctx, "caves-2")
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestPathStoreRejectsCorruptFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "paths.yaml")
	require.NoError(t, os.WriteFile(filename, []byte("{{{ not yaml"), 0o600))

	_, err := NewFilePathStore(filename).Load(context.Background(), "plains-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreFormat)
}

func TestPathStoreRejectsUnknownSchemaVersion(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "paths.yaml")
	require.NoError(t, os.WriteFile(filename, []byte("version: 2\nlevels: {}\n"), 0o600))

	_, err := NewFilePathStore(filename).Load(context.Background(), "plains-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreFormat)
}

func TestPathStoreFlushWithoutChangesWritesNothing(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "paths.yaml")

	store := NewFilePathStore(filename)
	require.NoError(t, store.Flush(context.Background()))

	_, err := os.Stat(filename)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
