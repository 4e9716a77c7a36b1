// Package prefs persists sieve's UI preferences in ~/.config/sieve/prefs.toml.
// Only presentation choices live here; video and creator data is never cached.
package prefs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/sieve/internal/feed"
)

// Prefs holds user preferences.
type Prefs struct {
	Theme string `toml:"theme"`
	Sort  string `toml:"sort,omitempty"`
	Daily bool   `toml:"daily,omitempty"`
}

const (
	defaultPrefsPath = "~/.config/sieve/prefs.toml"
	defaultTheme     = "Dracula"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// SortKey returns the saved sort order, or fallback when none is saved.
func (p Prefs) SortKey(fallback feed.SortKey) feed.SortKey {
	if strings.TrimSpace(p.Sort) == "" {
		return fallback
	}
	return feed.ParseSortKey(p.Sort)
}

// Load reads preferences from path. Any problem yields defaults; a broken
// prefs file never keeps sieve from starting.
func Load(path string) Prefs {
	defaults := Prefs{Theme: defaultTheme}

	resolved, err := resolvePath(path)
	if err != nil {
		return defaults
	}
	file, err := os.Open(resolved)
	if err != nil {
		return defaults
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return defaults
	}

	var p Prefs
	if err := toml.Unmarshal(bytes, &p); err != nil {
		return defaults
	}
	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = defaultTheme
	}
	p.Sort = strings.TrimSpace(p.Sort)
	return p
}

// Save writes preferences to path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
