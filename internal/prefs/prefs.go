// Package prefs persists ladle's per-user preferences in
// ~/.config/ladle/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds user preferences.
type Prefs struct {
	// Ordering is the default sort for recipe listings, e.g. "-created_at".
	Ordering string `toml:"ordering"`
	// PendingRedirect is where to continue after the next sign-in.
	PendingRedirect string `toml:"pending_redirect,omitempty"`
}

const (
	defaultPrefsPath = "~/.config/ladle/prefs.toml"
	defaultOrdering  = "-created_at"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from path, falling back to defaults when the file is
// missing or unreadable.
func Load(path string) (Prefs, error) {
	prefs := Prefs{Ordering: defaultOrdering}

	resolved, err := resolvePath(path)
	if err != nil {
		return prefs, nil
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs, nil // Graceful degradation
	}

	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return Prefs{Ordering: defaultOrdering}, nil // Graceful degradation
	}

	prefs.Ordering = strings.TrimSpace(prefs.Ordering)
	if prefs.Ordering == "" {
		prefs.Ordering = defaultOrdering
	}
	prefs.PendingRedirect = strings.TrimSpace(prefs.PendingRedirect)

	return prefs, nil
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

// TakePendingRedirect returns and clears the stored redirect.
func TakePendingRedirect(path string) (string, error) {
	p, err := Load(path)
	if err != nil || p.PendingRedirect == "" {
		return "", err
	}
	target := p.PendingRedirect
	p.PendingRedirect = ""
	if err := Save(path, p); err != nil {
		return "", err
	}
	return target, nil
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
