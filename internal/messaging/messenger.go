package messaging

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidAddress is returned before any delivery attempt when the
// recipient is not a well-formed contact identifier.
var ErrInvalidAddress = errors.New("invalid recipient address")

// TransportError wraps a delivery failure from the underlying channel.
type TransportError struct {
	Address string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("message delivery to %s failed: %v", e.Address, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MenuOption is one selectable entry of a rendered menu.
type MenuOption struct {
	ID    string
	Label string
}

// Messenger delivers outbound messages to a conversation participant.
// Implementations validate the address before attempting delivery and
// return a delivery reference on success.
type Messenger interface {
	SendText(ctx context.Context, address, body string) (string, error)
	SendMenu(ctx context.Context, address, title string, options []MenuOption, footer string) (string, error)
}
