// Package transport abstracts the push channel carrying sync messages. A
// link delivers whole text frames in arrival order; everything above it is
// payload-agnostic.
package transport

import (
	"context"
	"errors"
)

var (
	ErrNotOpen = errors.New("transport: link is not open")
	ErrClosed  = errors.New("transport: link is closed")
)

// State is the lifecycle of a single link. There is no reconnect state; a
// closed link stays closed and the host decides whether to dial again.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Conn is one established link. Send and Receive are safe to call from
// different goroutines; Receive is not safe for concurrent use with itself.
type Conn interface {
	// Send writes one text frame. It returns ErrClosed once the link is
	// down; frames are never queued for later delivery.
	Send(data []byte) error
	// Receive blocks for the next inbound frame.
	Receive() ([]byte, error)
	RemoteAddr() string
	Close() error
}

// Dialer establishes outbound links.
type Dialer interface {
	Dial(ctx context.Context, addr string) (Conn, error)
}

// Listener accepts inbound links on the relay side.
type Listener interface {
	Accept(ctx context.Context) (Conn, error)
	Addr() string
	Close() error
}
