// Package pipe detects piped standard streams. A draft piped into
// composer pre-fills the input bar.
package pipe

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// MaxDraftBytes caps how much piped input becomes the initial draft.
const MaxDraftBytes = 64 << 10

// IsStdinPiped returns true if stdin is receiving piped input.
func IsStdinPiped() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode()&os.ModeCharDevice) == 0 || stat.Size() > 0
}

// IsStdoutTerminal returns true if stdout is a terminal.
func IsStdoutTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ReadDraft reads at most MaxDraftBytes from r and trims surrounding
// whitespace.
func ReadDraft(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDraftBytes))
	if err != nil {
		return "", fmt.Errorf("read draft: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// ReadStdinDraft reads the piped draft, or returns empty when stdin is a
// terminal.
func ReadStdinDraft() (string, error) {
	if !IsStdinPiped() {
		return "", nil
	}
	return ReadDraft(os.Stdin)
}
