package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	p := NewPersistor(path)

	s := New(p.Seed(Defaults()))
	unsub := p.Attach(s)
	defer unsub()

	s.SetTheme("dark")
	s.SetLanguage("en")
	s.SetFlag("beta", true)

	// A fresh process seeds from the file
	seeded := NewPersistor(path).Seed(Defaults())
	assert.Equal(t, "dark", seeded.Theme)
	assert.Equal(t, "en", seeded.Language)
	assert.True(t, seeded.Flags["beta"])
}

func TestPersistedProjectionExcludesTransientState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	p := NewPersistor(path)

	s := New(Defaults())
	defer p.Attach(s)()

	s.SetAuthenticated(true, 0)
	s.SetCache("secret", "value")
	s.SetLastError("boom")
	s.SetTheme("dark") // force one more write

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
	assert.NotContains(t, string(data), "boom")

	seeded := NewPersistor(path).Seed(Defaults())
	assert.False(t, seeded.Authenticated, "auth state must not persist")
	assert.Empty(t, seeded.Cache, "cache must not persist")
}

func TestSeedMissingFileIsFreshInstall(t *testing.T) {
	p := NewPersistor(filepath.Join(t.TempDir(), "nope.json"))
	seeded := p.Seed(Defaults())
	assert.Equal(t, Defaults().Theme, seeded.Theme)
}

func TestSeedCorruptFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	seeded := NewPersistor(path).Seed(Defaults())
	assert.Equal(t, Defaults().Theme, seeded.Theme)
	assert.Equal(t, Defaults().Language, seeded.Language)
}
