package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alexcabrera/composer/internal/geom"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Composer.MinHeight != 3 || cfg.Composer.MaxHeight != 12 {
		t.Errorf("heights = (%v, %v), want (3, 12)", cfg.Composer.MinHeight, cfg.Composer.MaxHeight)
	}
	if got := cfg.Composer.Margins.Insets(); got != (geom.Insets{Left: 1, Right: 1}) {
		t.Errorf("margins = %+v, want one column each side", got)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Composer.Placeholder != "Message" {
		t.Errorf("placeholder = %q, want default", cfg.Composer.Placeholder)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
composer:
  max_height: 8
  placeholder: "Say something"
tray:
  replies: ["yes", "no"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Composer.MaxHeight != 8 {
		t.Errorf("max_height = %v, want 8", cfg.Composer.MaxHeight)
	}
	if cfg.Composer.MinHeight != 3 {
		t.Errorf("min_height = %v, want the default kept", cfg.Composer.MinHeight)
	}
	if cfg.Composer.Placeholder != "Say something" {
		t.Errorf("placeholder = %q", cfg.Composer.Placeholder)
	}
	if len(cfg.Tray.Replies) != 2 {
		t.Errorf("replies = %v, want 2", cfg.Tray.Replies)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"min above max", "composer: {min_height: 9, max_height: 4}", "exceeds max_height"},
		{"zero min", "composer: {min_height: 0}", "min_height must be positive"},
		{"negative margin", "composer: {margins: {left: -1}}", "margins"},
		{"short tray", "tray: {height: 2}", "tray.height"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("Load() error = %v, want ErrInvalid", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad_ParseError(t *testing.T) {
	_, err := Load(writeConfig(t, "composer: [not, a, map"))
	if err == nil || errors.Is(err, ErrInvalid) {
		t.Errorf("Load() error = %v, want a parse error", err)
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Composer.ButtonLabel = "Go"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Composer.ButtonLabel != "Go" {
		t.Errorf("button_label = %q, want Go", got.Composer.ButtonLabel)
	}
}

func TestSave_RejectsInvalid(t *testing.T) {
	cfg := Default()
	cfg.Composer.MinHeight = 20

	if err := Save(filepath.Join(t.TempDir(), "config.yaml"), cfg); !errors.Is(err, ErrInvalid) {
		t.Errorf("Save() error = %v, want ErrInvalid", err)
	}
}

func TestWatch(t *testing.T) {
	path := writeConfig(t, "composer: {max_height: 10}\n")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 4)
	if err := Watch(ctx, path, func(p string) { changed <- p }); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	if err := os.WriteFile(path, []byte("composer: {max_height: 8}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changed:
		if got != filepath.Clean(path) {
			t.Errorf("changed path = %s, want %s", got, path)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatch_IgnoresSiblings(t *testing.T) {
	path := writeConfig(t, "composer: {}\n")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 4)
	if err := Watch(ctx, path, func(p string) { changed <- p }); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	sibling := filepath.Join(filepath.Dir(path), "other.yaml")
	if err := os.WriteFile(sibling, []byte("x: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changed:
		t.Errorf("unexpected change for %s", got)
	case <-time.After(300 * time.Millisecond):
	}
}
