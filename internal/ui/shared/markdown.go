package shared

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
)

// rendererCache stores glamour renderers by width to avoid recreating them.
var rendererCache sync.Map // map[int]*glamour.TermRenderer

// MarkdownRenderer returns a cached glamour renderer for the given width.
// Width is clamped to 20-200 to prevent cache explosion.
func MarkdownRenderer(width int) *glamour.TermRenderer {
	width = Clamp(width, 20, 200)

	if r, ok := rendererCache.Load(width); ok {
		return r.(*glamour.TermRenderer)
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(StyleConfig()),
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
		glamour.WithPreservedNewLines(),
	)
	if err != nil {
		return nil
	}

	rendererCache.Store(width, r)
	return r
}

// RenderMarkdown renders text at width, falling back to the plain text.
func RenderMarkdown(text string, width int) string {
	r := MarkdownRenderer(width)
	if r == nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

// ClearRendererCache clears the renderer cache (useful for testing).
func ClearRendererCache() {
	rendererCache.Range(func(key, value any) bool {
		rendererCache.Delete(key)
		return true
	})
}

// Clamp constrains a value to a range.
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// StyleConfig is glamour's dark style recolored with the palette, with
// document margins removed so transcript lines start at the left edge.
func StyleConfig() ansi.StyleConfig {
	cfg := glamour.DarkStyleConfig
	margin := uint(0)

	cfg.Document.Margin = &margin
	cfg.Document.BlockPrefix = ""
	cfg.Document.BlockSuffix = ""
	cfg.Document.Color = strPtr(string(ColorText))
	cfg.Heading.Color = strPtr(string(ColorPrimary))
	cfg.H1.BackgroundColor = nil
	cfg.H1.Color = strPtr(string(ColorPrimary))
	cfg.BlockQuote.Color = strPtr(string(ColorSecondary))
	cfg.Link.Color = strPtr(string(ColorSecondary))
	cfg.LinkText.Color = strPtr(string(ColorPrimary))
	cfg.Emph.Color = strPtr("#fbbf24")
	cfg.Strong.Color = strPtr(string(ColorTextBright))
	return cfg
}

func strPtr(s string) *string { return &s }
