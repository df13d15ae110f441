package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridsync/gridsync/internal/core/ecs"
	"github.com/gridsync/gridsync/internal/core/grid"
	"github.com/gridsync/gridsync/internal/observability/log"
	"github.com/gridsync/gridsync/internal/transport"
)

// recordingSurface captures draw commands for assertions.
type recordingSurface struct {
	mu  sync.Mutex
	ops []string
}

func (s *recordingSurface) Clear(w, h float64) {
	s.record(fmt.Sprintf("clear %v %v", w, h))
}

func (s *recordingSurface) FillRect(x, y, w, h float64, fill string) {
	s.record(fmt.Sprintf("fill %v %v %v %v %s", x, y, w, h, fill))
}

func (s *recordingSurface) StrokeRect(x, y, w, h float64, stroke string) {
	s.record(fmt.Sprintf("stroke %v %v %v %v %s", x, y, w, h, stroke))
}

func (s *recordingSurface) record(op string) {
	s.mu.Lock()
	s.ops = append(s.ops, op)
	s.mu.Unlock()
}

func (s *recordingSurface) reset() {
	s.mu.Lock()
	s.ops = nil
	s.mu.Unlock()
}

func (s *recordingSurface) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ops...)
}

// fakeConn is an in-memory link. Frames pushed into recvCh surface through
// Receive; sent frames are recorded.
type fakeConn struct {
	mu     sync.Mutex
	sent   [][]byte
	recvCh chan []byte
	done   chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		recvCh: make(chan []byte, 16),
		done:   make(chan struct{}),
	}
}

func (c *fakeConn) Send(data []byte) error {
	select {
	case <-c.done:
		return transport.ErrClosed
	default:
	}
	c.mu.Lock()
	c.sent = append(c.sent, append([]byte(nil), data...))
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) Receive() ([]byte, error) {
	select {
	case data := <-c.recvCh:
		return data, nil
	case <-c.done:
		return nil, transport.ErrClosed
	}
}

func (c *fakeConn) RemoteAddr() string { return "fake" }

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *fakeConn) sentFrames() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.sent...)
}

type fakeDialer struct {
	conn *fakeConn
	err  error
}

func (d fakeDialer) Dial(context.Context, string) (transport.Conn, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}

func newTestSession(t *testing.T) (*Session, *recordingSurface) {
	t.Helper()
	surface := &recordingSurface{}
	return New(grid.DefaultConfig(), surface, log.Nop()), surface
}

func TestHandleClick_TogglesAndAnnounces(t *testing.T) {
	sess, surface := newTestSession(t)
	conn := newFakeConn()
	require.NoError(t, sess.Connect(context.Background(), fakeDialer{conn: conn}, "fake://"))
	defer sess.Close()

	sess.HandleClick(5, 5)

	c, ok := sess.CellColor(0)
	require.True(t, ok)
	assert.Equal(t, ecs.Color{R: 0, G: 0, B: 0}, c, "white cell should toggle to black")

	frames := conn.sentFrames()
	require.Len(t, frames, 1)
	assert.JSONEq(t, `{"ColorUpdate":{"entity":0,"r":0,"g":0,"b":0}}`, string(frames[0]))

	assert.Contains(t, surface.snapshot(), "fill 0 0 50 50 rgb(0,0,0)", "the toggled cell should be repainted")
}

func TestHandleClick_DoubleToggleRestores(t *testing.T) {
	sess, _ := newTestSession(t)

	sess.HandleClick(125, 75) // column 2, row 1 → entity 10
	c, ok := sess.CellColor(10)
	require.True(t, ok)
	assert.Equal(t, ecs.Color{R: 0, G: 0, B: 0}, c)

	sess.HandleClick(125, 75)
	c, _ = sess.CellColor(10)
	assert.Equal(t, ecs.White, c, "two toggles should restore the original color")
}

func TestHandleClick_OutsideGridNoEffect(t *testing.T) {
	sess, surface := newTestSession(t)
	before := sess.Digest()
	surface.reset()

	sess.HandleClick(-10, 5)
	sess.HandleClick(401, 401)

	assert.Equal(t, before, sess.Digest(), "misses must not change the board")
	assert.Empty(t, surface.snapshot(), "misses must not trigger a redraw")
}

func TestHandleClick_LocalToggleSurvivesClosedLink(t *testing.T) {
	sess, _ := newTestSession(t)
	conn := newFakeConn()
	require.NoError(t, sess.Connect(context.Background(), fakeDialer{conn: conn}, "fake://"))
	require.NoError(t, sess.Close())

	sess.HandleClick(5, 5)

	c, ok := sess.CellColor(0)
	require.True(t, ok)
	assert.Equal(t, ecs.Color{R: 0, G: 0, B: 0}, c, "local toggle must apply even when the send is dropped")
	assert.Empty(t, conn.sentFrames(), "nothing should be sent on a closed link")
}

func TestHandleInbound_AppliesColorUpdate(t *testing.T) {
	sess, surface := newTestSession(t)
	surface.reset()

	sess.HandleInbound([]byte(`{"ColorUpdate":{"entity":12,"r":1,"g":2,"b":3}}`))

	c, ok := sess.CellColor(12)
	require.True(t, ok)
	assert.Equal(t, ecs.Color{R: 1, G: 2, B: 3}, c)
	assert.Contains(t, surface.snapshot(), "clear 400 400", "an applied update should redraw the full board")
}

func TestHandleInbound_UnknownEntityDropped(t *testing.T) {
	sess, surface := newTestSession(t)
	before := sess.Digest()
	surface.reset()

	sess.HandleInbound([]byte(`{"ColorUpdate":{"entity":64,"r":0,"g":0,"b":0}}`))
	sess.HandleInbound([]byte(`{"ColorUpdate":{"entity":4294967295,"r":0,"g":0,"b":0}}`))

	assert.Equal(t, before, sess.Digest(), "stale updates must leave the board unchanged")
	assert.Empty(t, surface.snapshot(), "dropped updates must not redraw")
}

func TestHandleInbound_MalformedDropped(t *testing.T) {
	sess, surface := newTestSession(t)
	before := sess.Digest()
	surface.reset()

	for _, raw := range []string{
		`not json at all`,
		`{"Unknown":{"x":1}}`,
		`{"ColorUpdate":{"entity":0}}`,
		`{"ColorUpdate":{"entity":0,"r":"red","g":0,"b":0}}`,
	} {
		assert.NotPanics(t, func() { sess.HandleInbound([]byte(raw)) })
	}

	assert.Equal(t, before, sess.Digest())
	assert.Empty(t, surface.snapshot())
}

func TestHandleInbound_ClickIsNoOp(t *testing.T) {
	sess, surface := newTestSession(t)
	before := sess.Digest()
	surface.reset()

	sess.HandleInbound([]byte(`{"Click":{"x":5,"y":5}}`))

	assert.Equal(t, before, sess.Digest(), "inbound clicks are informational only")
	assert.Empty(t, surface.snapshot())
}

func TestConnect_StateMachine(t *testing.T) {
	sess, _ := newTestSession(t)
	assert.Equal(t, transport.StateDisconnected, sess.State())

	err := sess.Connect(context.Background(), fakeDialer{err: transport.ErrClosed}, "fake://")
	require.Error(t, err, "a failed dial must surface to the caller")
	assert.Equal(t, transport.StateDisconnected, sess.State())

	conn := newFakeConn()
	require.NoError(t, sess.Connect(context.Background(), fakeDialer{conn: conn}, "fake://"))
	assert.Equal(t, transport.StateOpen, sess.State())

	require.NoError(t, sess.Close())
	assert.Equal(t, transport.StateClosed, sess.State())
}

func TestReadPump_DeliversInbound(t *testing.T) {
	sess, _ := newTestSession(t)
	conn := newFakeConn()
	require.NoError(t, sess.Connect(context.Background(), fakeDialer{conn: conn}, "fake://"))
	defer sess.Close()

	conn.recvCh <- []byte(`{"ColorUpdate":{"entity":3,"r":9,"g":9,"b":9}}`)

	require.Eventually(t, func() bool {
		c, _ := sess.CellColor(3)
		return c == (ecs.Color{R: 9, G: 9, B: 9})
	}, time.Second, 5*time.Millisecond, "the pump should apply inbound frames")
}

// Two independently initialized sessions: a click on one, delivered over the
// wire, converges the other.
func TestEndToEnd_TwoSessionsConverge(t *testing.T) {
	sessA, _ := newTestSession(t)
	sessB, _ := newTestSession(t)
	connA := newFakeConn()
	require.NoError(t, sessA.Connect(context.Background(), fakeDialer{conn: connA}, "fake://"))
	defer sessA.Close()

	require.Equal(t, sessA.Digest(), sessB.Digest(), "fresh boards must agree")

	sessA.HandleClick(5, 5)

	frames := connA.sentFrames()
	require.Len(t, frames, 1)
	assert.JSONEq(t, `{"ColorUpdate":{"entity":0,"r":0,"g":0,"b":0}}`, string(frames[0]))

	sessB.HandleInbound(frames[0])

	c, ok := sessB.CellColor(0)
	require.True(t, ok)
	assert.Equal(t, ecs.Color{R: 0, G: 0, B: 0}, c)
	assert.Equal(t, sessA.Digest(), sessB.Digest(), "boards must converge after delivery")
}

func TestRedraw_PaintsEveryCellInOrder(t *testing.T) {
	cfg := grid.Config{Dim: 2, CellSize: 10}
	surface := &recordingSurface{}
	sess := New(cfg, surface, log.Nop())

	sess.Redraw()

	assert.Equal(t, []string{
		"clear 20 20",
		"fill 0 0 10 10 rgb(255,255,255)",
		"stroke 0 0 10 10 black",
		"fill 10 0 10 10 rgb(255,255,255)",
		"stroke 10 0 10 10 black",
		"fill 0 10 10 10 rgb(255,255,255)",
		"stroke 0 10 10 10 black",
		"fill 10 10 10 10 rgb(255,255,255)",
		"stroke 10 10 10 10 black",
	}, surface.snapshot(), "cells paint in ascending entity order")
}
