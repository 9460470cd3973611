// Package config loads the composer configuration from YAML.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/alexcabrera/composer/internal/geom"
	"github.com/alexcabrera/composer/internal/logger"
	"github.com/alexcabrera/composer/internal/paths"
)

// ErrInvalid marks a configuration that loaded but cannot be used.
var ErrInvalid = errors.New("invalid config")

// Config represents the configuration for composer.
type Config struct {
	Composer ComposerConfig `yaml:"composer"`
	Tray     TrayConfig     `yaml:"tray"`
	Log      logger.Config  `yaml:"log"`
}

// ComposerConfig configures the input bar. Heights and margins are in
// terminal rows and columns.
type ComposerConfig struct {
	MinHeight   float64 `yaml:"min_height"`
	MaxHeight   float64 `yaml:"max_height"`
	Margins     Margins `yaml:"margins"`
	BorderColor string  `yaml:"border_color"`
	// Placeholder is shown in the empty field; empty disables it.
	Placeholder string `yaml:"placeholder"`
	ButtonLabel string `yaml:"button_label"`
}

// Margins are the input bar's layout margins.
type Margins struct {
	Top    float64 `yaml:"top"`
	Left   float64 `yaml:"left"`
	Bottom float64 `yaml:"bottom"`
	Right  float64 `yaml:"right"`
}

// Insets converts m to geometry insets.
func (m Margins) Insets() geom.Insets {
	return geom.Insets{Top: m.Top, Left: m.Left, Bottom: m.Bottom, Right: m.Right}
}

// TrayConfig configures the quick-reply tray.
type TrayConfig struct {
	Height   float64  `yaml:"height"`
	Replies  []string `yaml:"replies"`
	Floating bool     `yaml:"floating"`
}

// Default returns a Config populated with default values.
func Default() Config {
	return Config{
		Composer: ComposerConfig{
			MinHeight:   3,
			MaxHeight:   12,
			Margins:     Margins{Left: 1, Right: 1},
			BorderColor: "#a78bfa",
			Placeholder: "Message",
			ButtonLabel: "Send",
		},
		Tray: TrayConfig{
			Height:   6,
			Replies:  []string{"On my way", "Sounds good", "Thanks!", "Can't talk now"},
			Floating: true,
		},
		Log: logger.Config{
			Enabled: false,
			Level:   "info",
			File:    paths.LogFile(),
		},
	}
}

// Validate reports every unusable value, each wrapped with ErrInvalid.
func (c Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	cc := c.Composer
	if cc.MinHeight <= 0 {
		invalid("composer.min_height must be positive, got %v", cc.MinHeight)
	}
	if cc.MaxHeight <= 0 {
		invalid("composer.max_height must be positive, got %v", cc.MaxHeight)
	}
	if cc.MinHeight > cc.MaxHeight {
		invalid("composer.min_height %v exceeds max_height %v", cc.MinHeight, cc.MaxHeight)
	}
	m := cc.Margins
	if m.Top < 0 || m.Left < 0 || m.Bottom < 0 || m.Right < 0 {
		invalid("composer.margins must not be negative")
	}
	if c.Tray.Height < 3 {
		invalid("tray.height must be at least 3, got %v", c.Tray.Height)
	}
	return errors.Join(errs...)
}

// Load reads configuration from the given path, falling back to defaults when missing.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("load %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating its directory.
func Save(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// debounce coalesces the bursts of events editors produce on save.
const debounce = 100 * time.Millisecond

// Watch calls onChange after path is written, created or replaced, until
// ctx is done. The directory is watched so editors that swap files in
// place are seen.
func Watch(ctx context.Context, path string, onChange func(path string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		w.Close()
		return fmt.Errorf("watch config: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return fmt.Errorf("watch config: %w", err)
	}

	go func() {
		defer w.Close()
		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != path {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(debounce)
				} else {
					timer.Reset(debounce)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				onChange(path)
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return nil
}
