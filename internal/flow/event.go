package flow

import "strings"

// Event is a normalized inbound message: a sender address key plus either
// free text or a selection identifier from a button/list reply.
type Event struct {
	AddressKey  string
	Text        string
	SelectionID string
}

// NewTextEvent builds an event from free text, trimming whitespace.
func NewTextEvent(addressKey, text string) Event {
	return Event{AddressKey: addressKey, Text: strings.TrimSpace(text)}
}

// NewSelectionEvent builds an event from an interactive reply id.
func NewSelectionEvent(addressKey, selectionID string) Event {
	return Event{AddressKey: addressKey, SelectionID: strings.TrimSpace(selectionID)}
}

// Empty reports whether the event carries neither text nor a selection.
// Empty events are logged and dropped without a reply.
func (e Event) Empty() bool {
	return e.Text == "" && e.SelectionID == ""
}

// Input returns the value handlers match on. A selection id takes
// precedence over free text, lowercased for case-insensitive matching.
func (e Event) Input() string {
	if e.SelectionID != "" {
		return strings.ToLower(e.SelectionID)
	}
	return strings.ToLower(e.Text)
}

// RawText returns the trimmed text as typed, preserving case for data
// entry steps such as shop names.
func (e Event) RawText() string {
	if e.SelectionID != "" {
		return e.SelectionID
	}
	return e.Text
}

// globalCommands reset the conversation to the main menu from any state.
var globalCommands = map[string]bool{
	"help":  true,
	"menu":  true,
	"start": true,
	"0":     true,
}

// IsGlobalCommand reports whether the event is a global reset command.
func (e Event) IsGlobalCommand() bool {
	return globalCommands[e.Input()]
}
