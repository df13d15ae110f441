// Package websocket carries sync frames over a WebSocket link.
package websocket

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/gridsync/gridsync/internal/transport"
)

var _ transport.Conn = (*Conn)(nil)

// Conn wraps a gorilla connection as a text-frame link. A write mutex keeps
// concurrent sends safe; reads stay on a single goroutine.
type Conn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	closed  int32
}

// Wrap adopts an already established connection, typically one produced by
// an HTTP upgrade on the relay side.
func Wrap(conn *websocket.Conn) *Conn {
	return &Conn{conn: conn}
}

// Dial connects to a relay endpoint such as ws://host:port/ws.
func Dial(ctx context.Context, url string) (*Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "websocket dial %s", url)
	}
	return Wrap(conn), nil
}

func (c *Conn) Send(data []byte) error {
	if atomic.LoadInt32(&c.closed) == 1 {
		return transport.ErrClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return errors.Wrap(err, "websocket write")
	}
	return nil
}

func (c *Conn) Receive() ([]byte, error) {
	if atomic.LoadInt32(&c.closed) == 1 {
		return nil, transport.ErrClosed
	}

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, errors.Wrap(err, "websocket read")
		}
		// Control frames are handled by gorilla; anything besides text and
		// binary payloads is skipped.
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}
		return data, nil
	}
}

func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

func (c *Conn) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	return c.conn.Close()
}

// Dialer adapts Dial to the transport.Dialer interface.
type Dialer struct{}

func (Dialer) Dial(ctx context.Context, addr string) (transport.Conn, error) {
	return Dial(ctx, addr)
}
