package highlight

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type settingsFile struct {
	SoundEnabled bool `yaml:"sound_enabled"`
}

// SoundPreference is the process-wide sound toggle. It is loaded from a
// local settings file at start and saved on every change; the very first
// run defaults to enabled and persists that default.
type SoundPreference struct {
	path string

	mu      sync.RWMutex
	enabled bool
}

// DefaultSettingsPath returns the default location of the local settings
// file.
func DefaultSettingsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "readyboard", "settings.yaml"), nil
}

// LoadSoundPreference reads the sound toggle from the settings file at
// path. A missing file means first run: the default (enabled) is adopted
// and written back.
func LoadSoundPreference(path string) (*SoundPreference, error) {
	p := &SoundPreference{path: path, enabled: true}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if saveErr := p.save(); saveErr != nil {
			log.Warn().Err(saveErr).Str("path", path).Msg("failed to persist default sound setting")
		}
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var settings settingsFile
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	p.enabled = settings.SoundEnabled
	return p, nil
}

// Enabled reports whether the sound cue is on.
func (p *SoundPreference) Enabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.enabled
}

// SetEnabled flips the toggle and persists it.
func (p *SoundPreference) SetEnabled(enabled bool) error {
	p.mu.Lock()
	p.enabled = enabled
	p.mu.Unlock()
	return p.save()
}

func (p *SoundPreference) save() error {
	p.mu.RLock()
	settings := settingsFile{SoundEnabled: p.enabled}
	p.mu.RUnlock()

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	if err := os.WriteFile(p.path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
