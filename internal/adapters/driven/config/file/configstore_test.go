package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "config")

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
	assert.DirExists(t, dir)
	assert.NoFileExists(t, store.Path(), "nothing is written until a value is set")
}

func TestConfigStore_PersistsAsTables(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("llm.provider", "ollama"))
	require.NoError(t, store.Set("split.max_topics", 6))
	require.NoError(t, store.Set("link.threshold", 0.35))
	require.NoError(t, store.Set("link.cross_chunk", true))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[llm]")
	assert.Contains(t, string(data), "[split]")

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "ollama", reopened.GetString("llm.provider"))
	assert.Equal(t, 6, reopened.GetInt("split.max_topics"))
	assert.InDelta(t, 0.35, reopened.GetFloat("link.threshold"), 1e-9)
	assert.True(t, reopened.GetBool("link.cross_chunk"))
}

func TestConfigStore_LoadsHandWrittenFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[split]
max_chunk_words = 20000
boundary_tolerance = 1

[embedding]
provider = "openai"
model = "text-embedding-3-small"

[output]
prune = true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, 20000, store.GetInt("split.max_chunk_words"))
	assert.InDelta(t, 1.0, store.GetFloat("split.boundary_tolerance"), 1e-9, "integers read as floats")
	assert.Equal(t, "openai", store.GetString("embedding.provider"))
	assert.True(t, store.GetBool("output.prune"))

	_, ok := store.Get("split")
	assert.False(t, ok, "tables are flattened")
}

func TestConfigStore_TypeMismatches(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("name", "topicnet"))

	assert.Equal(t, 0, store.GetInt("name"))
	assert.Equal(t, 0.0, store.GetFloat("name"))
	assert.False(t, store.GetBool("name"))
	assert.Equal(t, "", store.GetString("missing"))
}

func TestConfigStore_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[split\nmax = "), 0o600))

	_, err := NewConfigStore(dir)
	assert.Error(t, err)
}

func TestConfigStore_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("output.prune", true))
	require.NoError(t, store.Save())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "config.toml", entries[0].Name())
}

func TestNestFlattenRoundTrip(t *testing.T) {
	flat := map[string]any{"a.b": 1, "a.c": "x", "d": true, "e.f.g": 2.5}
	assert.Equal(t, flat, flatten(nest(flat), ""))
}
