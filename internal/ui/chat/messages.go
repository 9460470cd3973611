package chat

import "github.com/alexcabrera/composer/internal/ui/pubsub"

// Messages for communication between the chat TUI and external components.

// ReplyMsg carries the response to a sent message.
type ReplyMsg struct {
	Text string
	Err  error
}

// OpenEditorMsg is sent when returning from external editor.
type OpenEditorMsg struct {
	Text string
}

// ErrorMsg indicates an error occurred.
type ErrorMsg struct {
	Error error
}

// configMsg delivers a config file change onto the UI loop.
type configMsg struct {
	event pubsub.ConfigEvent
}
