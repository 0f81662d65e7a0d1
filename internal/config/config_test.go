package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagsplorer/tagsplorer/internal/norm"
)

func TestConfig_StoreLoadFixpoint(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := New()
	cfg.Paths["/music"] = &Markers{Tag: []string{"fav;*.flac;"}}
	cfg.Paths[""] = &Markers{Skipd: []string{".git"}, Global: []string{"reduce_storage=true"}}
	require.NoError(t, cfg.Store(dir, 1234))
	assert.Equal(t, int64(1234), cfg.Timestamp)

	loaded := New()
	changed, err := loaded.Load(dir, 0)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, int64(1234), loaded.Timestamp)
	assert.Equal(t, cfg.Paths, loaded.Paths)
	assert.True(t, loaded.Settings.ReduceStorage)

	// Storing the loaded model reproduces the file byte-for-byte.
	original, err := os.ReadFile(filepath.Join(dir, ConfigName))
	require.NoError(t, err)
	require.NoError(t, loaded.Store(dir, 1234))
	rewritten, err := os.ReadFile(filepath.Join(dir, ConfigName))
	require.NoError(t, err)
	assert.Equal(t, original, rewritten)
}

func TestConfig_LoadSkipsWhenIndexCurrent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := New()
	cfg.Paths["/a"] = &Markers{Skip: true}
	require.NoError(t, cfg.Store(dir, 99))

	fresh := New()
	changed, err := fresh.Load(dir, 99)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, fresh.Paths) // body was not parsed

	changed, err = fresh.Load(dir, 98)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Contains(t, fresh.Paths, "/a")
}

func TestConfig_LoadToleratesFloatTimestamp(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigName), []byte("1234.5\n\n"), 0o644))

	cfg := New()
	changed, err := cfg.Load(dir, 0)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, int64(1234), cfg.Timestamp)
}

func TestConfig_LoadMissingFile(t *testing.T) {
	t.Parallel()

	cfg := New()
	_, err := cfg.Load(t.TempDir(), 0)
	assert.Error(t, err)
}

func TestConfig_AddDelTagRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := New()
	cfg.Paths["/keep"] = &Markers{Tag: []string{"base;;"}}
	require.NoError(t, cfg.Store(dir, 1000))
	before, err := os.ReadFile(filepath.Join(dir, ConfigName))
	require.NoError(t, err)

	assert.True(t, cfg.AddTag("/music", "fav", []string{"b.flac", "a.flac"}, nil, false))
	assert.Equal(t, []string{"fav;a.flac,b.flac;"}, cfg.Paths["/music"].Tag)

	// Adding the exact same definition again is refused, force or not.
	assert.False(t, cfg.AddTag("/music", "fav", []string{"a.flac", "b.flac"}, nil, false))
	assert.False(t, cfg.AddTag("/music", "fav", []string{"a.flac", "b.flac"}, nil, true))

	assert.True(t, cfg.DelTag("/music", "fav", []string{"a.flac", "b.flac"}, nil))
	assert.False(t, cfg.DelTag("/music", "fav", []string{"a.flac", "b.flac"}, nil))

	// Re-serialization restores the file byte-for-byte.
	require.NoError(t, cfg.Store(dir, 1000))
	after, err := os.ReadFile(filepath.Join(dir, ConfigName))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestConfig_ShowTags(t *testing.T) {
	t.Parallel()

	cfg := New()
	cfg.Paths["/pro jects/dot.folder"] = &Markers{Tag: []string{"b;;", "a;x;", "a;y;"}}

	n := norm.New(false)
	derived, entries := cfg.ShowTags("/pro jects/dot.folder", n)
	assert.Contains(t, derived, "pro jects")
	assert.Contains(t, derived, "pro")
	assert.Contains(t, derived, "jects")
	assert.Contains(t, derived, "dot.folder")
	assert.Contains(t, derived, "dot")
	assert.Contains(t, derived, "folder")
	assert.Contains(t, derived, "DOT.FOLDER")
	// Entries are grouped by tag name in sorted order.
	assert.Equal(t, []string{"a;x;", "a;y;", "b;;"}, entries)
}

func TestConfig_AnyParentSkipped(t *testing.T) {
	t.Parallel()

	cfg := New()
	cfg.Paths["/a"] = &Markers{Skip: true}
	cfg.Paths["/b/c"] = &Markers{Ignore: true}

	assert.True(t, cfg.AnyParentSkipped("/a/b"))
	assert.True(t, cfg.AnyParentSkipped("/a"))
	assert.False(t, cfg.AnyParentSkipped("/b/c"))
	assert.False(t, cfg.AnyParentSkipped("/b"))
}

func TestConfig_Settings(t *testing.T) {
	t.Parallel()

	cfg := New()
	require.NoError(t, cfg.SetSetting("case_sensitive", "false"))
	require.NoError(t, cfg.SetSetting("compression", "5"))
	assert.False(t, cfg.Settings.CaseSensitive)
	assert.Equal(t, 5, cfg.Settings.Compression)

	// Updating an existing key replaces its entry instead of duplicating it.
	require.NoError(t, cfg.SetSetting("compression", "0"))
	assert.Equal(t, 0, cfg.Settings.Compression)
	assert.Len(t, cfg.GlobalEntries(), 2)

	value, err := cfg.GetSetting("compression")
	require.NoError(t, err)
	assert.Equal(t, "0", value)

	found, err := cfg.UnsetSetting("compression")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, DefaultSettings().Compression, cfg.Settings.Compression)

	assert.Error(t, cfg.SetSetting("nonsense", "1"))
	_, err = cfg.GetSetting("nonsense")
	assert.Error(t, err)

	cfg.ResetSettings()
	assert.Empty(t, cfg.GlobalEntries())
	assert.Equal(t, DefaultSettings(), cfg.Settings)
}

func TestDecodeSettings_Defaults(t *testing.T) {
	t.Parallel()

	s := decodeSettings(nil)
	assert.Equal(t, DefaultSettings(), s)

	s = decodeSettings([]string{"unknown=1", "garbage", "compression=7"})
	assert.Equal(t, 7, s.Compression)
	assert.Equal(t, DefaultSettings().CaseSensitive, s.CaseSensitive)
}

func TestDiscoverRoot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	nested := filepath.Join(dir, "x", "y")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigName), []byte("1\n\n"), 0o644))

	found, err := DiscoverRoot(nested)
	require.NoError(t, err)
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, resolved, found)
}
