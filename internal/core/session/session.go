// Package session owns one viewer's board: the world, the drawing surface
// and the sync link. All world access funnels through a single session so
// local clicks and inbound updates never race.
package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/gridsync/gridsync/internal/core/ecs"
	"github.com/gridsync/gridsync/internal/core/grid"
	"github.com/gridsync/gridsync/internal/core/protocol"
	"github.com/gridsync/gridsync/internal/observability/log"
	"github.com/gridsync/gridsync/internal/render"
	"github.com/gridsync/gridsync/internal/transport"
)

// Session is the single owner of a world. The mutex covers every mutation
// together with its redraw, so a render never observes a half-applied
// update. Locked sections never take the lock again: helpers ending in
// "Locked" assume it is held.
type Session struct {
	mu      sync.Mutex
	world   *ecs.World
	grid    grid.Config
	surface render.Surface
	logger  log.Log

	conn  transport.Conn
	state int32 // transport.State
	pump  sync.WaitGroup
}

// New builds a session with a freshly populated board in local-only mode.
// The link stays disconnected until Connect succeeds.
func New(cfg grid.Config, surface render.Surface, logger log.Log) *Session {
	return &Session{
		world:   cfg.NewWorld(),
		grid:    cfg,
		surface: surface,
		logger:  logger.With(log.String("component", "session")),
		state:   int32(transport.StateDisconnected),
	}
}

// State reports the sync link's lifecycle state.
func (s *Session) State() transport.State {
	return transport.State(atomic.LoadInt32(&s.state))
}

// Connect dials the relay and starts the inbound pump. A failed dial is
// returned to the caller, who decides between retrying and staying in
// local-only mode; the board itself is unaffected either way.
func (s *Session) Connect(ctx context.Context, dialer transport.Dialer, addr string) error {
	atomic.StoreInt32(&s.state, int32(transport.StateConnecting))

	conn, err := dialer.Dial(ctx, addr)
	if err != nil {
		atomic.StoreInt32(&s.state, int32(transport.StateDisconnected))
		return err
	}

	s.conn = conn
	atomic.StoreInt32(&s.state, int32(transport.StateOpen))
	s.logger.Info("link open", log.String("remote", conn.RemoteAddr()))

	s.pump.Add(1)
	go s.readPump(conn)

	return nil
}

// Close tears down the link, if any. The board keeps working locally.
func (s *Session) Close() error {
	atomic.StoreInt32(&s.state, int32(transport.StateClosed))
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.pump.Wait()
	return err
}

// readPump delivers inbound frames one at a time. From the world's point of
// view each delivery is just another synchronous entry point; a read error
// closes the link for good.
func (s *Session) readPump(conn transport.Conn) {
	defer s.pump.Done()
	for {
		raw, err := conn.Receive()
		if err != nil {
			atomic.StoreInt32(&s.state, int32(transport.StateClosed))
			s.logger.Info("link closed", log.Error(err))
			return
		}
		s.HandleInbound(raw)
	}
}

// HandleClick maps a pointer position, already in board coordinates, to a
// cell and toggles it. The local color flips and redraws unconditionally;
// announcing the change to other viewers is best effort and never blocks or
// reverts the local toggle.
func (s *Session) HandleClick(x, y float64) {
	var outbound []byte

	s.mu.Lock()
	entity, ok := grid.HitTest(s.world, x, y)
	if ok {
		if ref := s.world.ColorRef(entity); ref != nil {
			*ref = ref.Invert()
			toggled := *ref
			s.redrawLocked()

			data, err := protocol.Encode(protocol.NewColorUpdate(entity, toggled))
			if err == nil {
				outbound = data
			} else {
				s.logger.Error("encode color update", log.Error(err))
			}
		}
	}
	s.mu.Unlock()

	if outbound != nil {
		s.send(outbound)
	}
}

// send drops the frame when the link is not open. There is no queue and no
// retry; a lost announcement only costs remote freshness, never local state.
func (s *Session) send(data []byte) {
	if s.State() != transport.StateOpen || s.conn == nil {
		s.logger.Debug("send dropped, link not open", log.String("state", s.State().String()))
		return
	}
	if err := s.conn.Send(data); err != nil {
		s.logger.Debug("send dropped", log.Error(err))
	}
}

// HandleInbound applies one raw frame to the board. Every failure mode is
// swallowed here: undecodable frames and updates for unknown entities are
// dropped, favoring availability of the best-effort sync channel. It never
// panics into the transport pump.
func (s *Session) HandleInbound(raw []byte) {
	msg, err := protocol.Decode(raw)
	if err != nil {
		s.logger.Debug("dropping undecodable frame", log.Error(err))
		return
	}

	switch m := msg.(type) {
	case protocol.ColorUpdate:
		s.mu.Lock()
		if s.world.SetColor(m.Entity, m.Color()) {
			s.redrawLocked()
		} else {
			// Stale or foreign update, not an error.
			s.logger.Debug("dropping update for unknown entity", log.Uint32("entity", uint32(m.Entity)))
		}
		s.mu.Unlock()
	case protocol.Click:
		// Informational only; remote clicks arrive as ColorUpdate.
	}
}

// Redraw repaints the whole board from world state.
func (s *Session) Redraw() {
	s.mu.Lock()
	s.redrawLocked()
	s.mu.Unlock()
}

func (s *Session) redrawLocked() {
	edge := s.grid.PixelSize()
	s.surface.Clear(edge, edge)

	for entity := ecs.EntityID(0); entity < s.world.Count(); entity++ {
		pos, ok := s.world.Position(entity)
		if !ok {
			continue
		}
		size, ok := s.world.Size(entity)
		if !ok {
			continue
		}
		color, ok := s.world.Color(entity)
		if !ok {
			continue
		}
		s.surface.FillRect(pos.X, pos.Y, size.Width, size.Height, color.String())
		s.surface.StrokeRect(pos.X, pos.Y, size.Width, size.Height, render.StrokeColor)
	}

	if f, ok := s.surface.(render.Flusher); ok {
		f.Flush()
	}
}

// CellColor reads one cell's current color.
func (s *Session) CellColor(entity ecs.EntityID) (ecs.Color, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world.Color(entity)
}

// Digest returns the board's color digest for convergence checks.
func (s *Session) Digest() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world.ColorDigest()
}

// Grid exposes the board configuration the session was built with.
func (s *Session) Grid() grid.Config {
	return s.grid
}
