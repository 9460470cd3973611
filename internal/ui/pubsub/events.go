package pubsub

import (
	"time"

	"github.com/alexcabrera/composer/internal/geom"
	"github.com/alexcabrera/composer/internal/ui/anim"
)

// KeyboardFrameEvent is a keyboard frame change notification. In the
// terminal the keyboard is the bottom tray. A nil field was not reported
// by the publisher.
type KeyboardFrameEvent struct {
	// Frame is the keyboard's target frame in screen coordinates.
	Frame *geom.Rect
	// Duration is the animation duration of the change.
	Duration *time.Duration
	// Curve is the animation curve of the change.
	Curve *anim.Curve
	// Source names the publisher, for logs.
	Source string
}

// ConfigEvent reports a reloaded configuration file.
type ConfigEvent struct {
	// Path is the file that changed.
	Path string
	// Err is set when the new file could not be loaded.
	Err error
}
