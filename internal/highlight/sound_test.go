package highlight

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstRunDefaultsToEnabledAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")

	pref, err := LoadSoundPreference(path)
	require.NoError(t, err)
	assert.True(t, pref.Enabled())

	// The default is written back so the next run reads a real file.
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestSetEnabledSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")

	pref, err := LoadSoundPreference(path)
	require.NoError(t, err)
	require.NoError(t, pref.SetEnabled(false))

	reloaded, err := LoadSoundPreference(path)
	require.NoError(t, err)
	assert.False(t, reloaded.Enabled())
}

func TestLoadRejectsGarbledSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml: ["), 0o644))

	_, err := LoadSoundPreference(path)
	assert.Error(t, err)
}
