package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RateBoard/internal/model"
)

func TestNormalize(t *testing.T) {
	got := Settings{Currency: " eth ", Interval: "6M", ChartColor: "#ABCDEF", Theme: "dark"}.Normalize()
	assert.Equal(t, "ETH", got.Currency)
	assert.Equal(t, model.SixMonths, got.Interval)
	assert.Equal(t, "#abcdef", got.ChartColor)
	assert.Equal(t, ThemeDark, got.Theme)

	got = Settings{Interval: "2w", ChartColor: "red", Theme: "neon"}.Normalize()
	assert.Equal(t, Default(), got)
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("FF0000")
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", c)

	_, err = ParseColor("#ff00")
	assert.Error(t, err)
}

func TestToggleTheme(t *testing.T) {
	s := Default().ToggleTheme()
	assert.Equal(t, ThemeDark, s.Theme)
	assert.Equal(t, ThemeLight, s.ToggleTheme().Theme)
}

// storeContract exercises behavior every Store implementation shares.
func storeContract(t *testing.T, store Store) {
	t.Helper()
	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), got, "empty store yields defaults")

	want := Settings{Currency: "usd", Interval: model.OneYear, ChartColor: "#00ff00", Theme: ThemeDark}
	require.NoError(t, store.Save(want))
	require.NoError(t, store.Save(want))

	got, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, model.OneYear, got.Interval)
	assert.Equal(t, "#00ff00", got.ChartColor)
	assert.Equal(t, ThemeDark, got.Theme)
	assert.False(t, got.UpdatedAt.IsZero())
	require.NoError(t, store.Close())
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)
	storeContract(t, store)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(Settings{Currency: "CNY"}))
	require.NoError(t, store.Close())

	store, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()
	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "CNY", got.Currency)
}

func TestFileStore(t *testing.T) {
	storeContract(t, NewFileStore(filepath.Join(t.TempDir(), "nested", "settings.json")))
}

func TestFileStore_CorruptFileYieldsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	got, err := NewFileStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), got)
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(filepath.Join(dir, "db", "settings.db"), "ignored.json")
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	s, err = Open("", filepath.Join(dir, "settings.json"))
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open("", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
}
