package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/alexcabrera/composer/internal/config"
)

// InitResult holds the raw answers of the init form.
type InitResult struct {
	MinHeight   string
	MaxHeight   string
	Placeholder string
	ButtonLabel string
	BorderColor string
	Floating    bool
	Replies     string
}

// NewInitResult pre-fills the answers from cfg.
func NewInitResult(cfg config.Config) InitResult {
	return InitResult{
		MinHeight:   formatFloat(cfg.Composer.MinHeight),
		MaxHeight:   formatFloat(cfg.Composer.MaxHeight),
		Placeholder: cfg.Composer.Placeholder,
		ButtonLabel: cfg.Composer.ButtonLabel,
		BorderColor: cfg.Composer.BorderColor,
		Floating:    cfg.Tray.Floating,
		Replies:     strings.Join(cfg.Tray.Replies, "\n"),
	}
}

// Apply writes the answers over base and validates the result.
func (r InitResult) Apply(base config.Config) (config.Config, error) {
	cfg := base
	var err error
	if cfg.Composer.MinHeight, err = strconv.ParseFloat(strings.TrimSpace(r.MinHeight), 64); err != nil {
		return base, fmt.Errorf("min height: %w", err)
	}
	if cfg.Composer.MaxHeight, err = strconv.ParseFloat(strings.TrimSpace(r.MaxHeight), 64); err != nil {
		return base, fmt.Errorf("max height: %w", err)
	}
	cfg.Composer.Placeholder = r.Placeholder
	cfg.Composer.ButtonLabel = strings.TrimSpace(r.ButtonLabel)
	cfg.Composer.BorderColor = strings.TrimSpace(r.BorderColor)
	cfg.Tray.Floating = r.Floating

	var replies []string
	for _, line := range strings.Split(r.Replies, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			replies = append(replies, line)
		}
	}
	if len(replies) > 0 {
		cfg.Tray.Replies = replies
	}

	if err := cfg.Validate(); err != nil {
		return base, err
	}
	return cfg, nil
}

type InitForm struct{}

func NewInitForm() *InitForm { return &InitForm{} }

func (f *InitForm) Run(ctx context.Context, base config.Config) (config.Config, error) {
	res := NewInitResult(base)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Minimum height").
				Description("Rows of the empty input field, border included").
				Value(&res.MinHeight).
				Validate(positive),
			huh.NewInput().
				Title("Maximum height").
				Description("Rows the input bar may grow to").
				Value(&res.MaxHeight).
				Validate(positive),
			huh.NewInput().
				Title("Placeholder").
				Placeholder("empty disables it").
				Value(&res.Placeholder),
			huh.NewInput().
				Title("Button label").
				Value(&res.ButtonLabel).
				Validate(func(v string) error {
					if strings.TrimSpace(v) == "" {
						return fmt.Errorf("required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Border color").
				Placeholder("#a78bfa").
				Value(&res.BorderColor),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Allow the reply tray to float?").
				Value(&res.Floating),
			huh.NewText().
				Title("Quick replies").
				Description("One per line").
				Value(&res.Replies).
				CharLimit(0),
		),
	).WithTheme(huh.ThemeCharm())

	if err := form.RunWithContext(ctx); err != nil {
		return base, err
	}

	return res.Apply(base)
}

func positive(v string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if f <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
