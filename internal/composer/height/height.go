// Package height resolves the input bar's text field height from its
// natural content height and the configured bounds.
package height

import (
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/alexcabrera/composer/internal/geom"
)

// Input is everything Resolve needs.
type Input struct {
	// Natural is the content height measured at the current width.
	Natural float64
	// Min and Max bound the height of the whole bar row.
	Min, Max float64
	// Margins are the bar's layout margins; their vertical sum is taken
	// off Max.
	Margins geom.Insets
	// Previous is the last resolved height.
	Previous float64
}

// Resolve clamps the natural height into [Min, Max - margins] and returns
// it with the change from Previous. Min wins when the margins leave less
// than Min.
func Resolve(in Input) (height, delta float64) {
	usableMax := in.Max - in.Margins.Vertical()
	height = geom.Clamp(in.Natural, in.Min, usableMax)
	return height, height - in.Previous
}

// State is the input bar's height state. It is only mutated through
// Apply and the bound setters.
type State struct {
	CurrentHeight        float64
	MinHeight            float64
	MaxHeight            float64
	ContentNaturalHeight float64
	LayoutMargins        geom.Insets
}

// NewState creates a state at its minimum height.
func NewState(minHeight, maxHeight float64, margins geom.Insets) State {
	return State{
		CurrentHeight: minHeight,
		MinHeight:     minHeight,
		MaxHeight:     maxHeight,
		LayoutMargins: margins,
	}
}

// Apply records a new natural height and returns the height delta.
func (s *State) Apply(natural float64) float64 {
	s.ContentNaturalHeight = natural
	h, delta := Resolve(Input{
		Natural:  natural,
		Min:      s.MinHeight,
		Max:      s.MaxHeight,
		Margins:  s.LayoutMargins,
		Previous: s.CurrentHeight,
	})
	s.CurrentHeight = h
	return delta
}

// Occupied returns the bar's total height: content plus vertical margins.
func (s State) Occupied() float64 {
	return s.CurrentHeight + s.LayoutMargins.Vertical()
}

// Measurer measures the natural height of text laid out at a width.
type Measurer interface {
	NaturalHeight(text string, width float64) float64
}

// MeasurerFunc adapts a function to Measurer.
type MeasurerFunc func(text string, width float64) float64

// NaturalHeight calls f.
func (f MeasurerFunc) NaturalHeight(text string, width float64) float64 {
	return f(text, width)
}

// CellMeasurer measures text on a terminal grid: one unit per wrapped
// line, plus the vertical text insets (borders, padding). Horizontal
// insets are taken off the width before wrapping.
type CellMeasurer struct {
	Insets geom.Insets
}

// NaturalHeight wraps text to width and counts the lines.
func (m CellMeasurer) NaturalHeight(text string, width float64) float64 {
	w := geom.Round(width - m.Insets.Horizontal())
	return float64(WrappedLines(text, w)) + m.Insets.Vertical()
}

// WrappedLines counts the display lines text occupies at width cells.
// Empty text is one line; a non-positive width disables wrapping.
func WrappedLines(text string, width int) int {
	lines := strings.Split(text, "\n")
	if width <= 0 {
		return len(lines)
	}
	n := 0
	for _, line := range lines {
		if line == "" {
			n++
			continue
		}
		wrapped := ansi.Wrap(line, width, "")
		n += strings.Count(wrapped, "\n") + 1
	}
	return n
}
