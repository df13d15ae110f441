// Package server implements the relay that fans color updates out to every
// connected viewer. The relay keeps its own authoritative copy of the board
// so that late joiners converge without any persistence.
package server

import (
	"context"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/gridsync/gridsync/internal/core/ecs"
	"github.com/gridsync/gridsync/internal/core/grid"
	"github.com/gridsync/gridsync/internal/core/protocol"
	"github.com/gridsync/gridsync/internal/observability/log"
	"github.com/gridsync/gridsync/internal/transport"
	transportquic "github.com/gridsync/gridsync/internal/transport/quic"
	transportws "github.com/gridsync/gridsync/internal/transport/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Viewers are trusted peers on the same board; there is no origin policy.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Config holds relay configuration.
type Config struct {
	// ListenAddr serves the WebSocket endpoint at /ws.
	ListenAddr string
	// QUICAddr optionally serves the same board over QUIC. Empty disables it.
	QUICAddr string
	// Grid must match the viewers' configuration; the board state the relay
	// tracks is keyed by the same deterministic entity ids.
	Grid grid.Config

	ShutdownTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:      "127.0.0.1:8080",
		Grid:            grid.DefaultConfig(),
		ShutdownTimeout: 5 * time.Second,
	}
}

type client struct {
	id   string
	conn transport.Conn
}

// Server relays frames between viewers. One mutex guards the world and the
// client set together: applying an update and choosing its broadcast targets
// is a single critical section.
type Server struct {
	config Config
	logger log.Log

	mu      sync.Mutex
	world   *ecs.World
	clients map[string]*client

	httpListener net.Listener
	httpServer   *http.Server
	quicListener *transportquic.Listener
	group        *errgroup.Group
	running      int32
}

func New(config Config, logger log.Log) *Server {
	return &Server{
		config:  config,
		logger:  logger.With(log.String("component", "server")),
		world:   config.Grid.NewWorld(),
		clients: make(map[string]*client),
	}
}

// Start binds the listeners and serves until Stop. The WebSocket listener is
// bound synchronously so callers can read Addr immediately after.
func (s *Server) Start(ctx context.Context) error {
	if s.config.Grid.Dim <= 0 || s.config.Grid.CellSize <= 0 {
		return ErrInvalidConfig
	}
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrServerAlreadyRunning
	}

	listener, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		atomic.StoreInt32(&s.running, 0)
		return err
	}
	s.httpListener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	s.httpServer = &http.Server{Handler: mux}

	s.group, ctx = errgroup.WithContext(ctx)

	s.group.Go(func() error {
		s.logger.Info("websocket listener started", log.String("addr", listener.Addr().String()))
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	if s.config.QUICAddr != "" {
		quicListener, err := transportquic.Listen(s.config.QUICAddr, nil)
		if err != nil {
			_ = s.httpServer.Close()
			atomic.StoreInt32(&s.running, 0)
			return err
		}
		s.quicListener = quicListener

		s.group.Go(func() error {
			s.logger.Info("quic listener started", log.String("addr", quicListener.Addr()))
			s.acceptQUIC(ctx, quicListener)
			return nil
		})
	}

	return nil
}

// Addr is the bound WebSocket address, useful with a ":0" listen config.
func (s *Server) Addr() string {
	if s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// Stop closes the listeners and every client link.
func (s *Server) Stop() error {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return ErrServerNotRunning
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	err := s.httpServer.Shutdown(ctx)

	if s.quicListener != nil {
		_ = s.quicListener.Close()
	}

	s.mu.Lock()
	for _, c := range s.clients {
		_ = c.conn.Close()
	}
	s.mu.Unlock()

	if groupErr := s.group.Wait(); groupErr != nil && err == nil {
		err = groupErr
	}
	return err
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", log.Error(err))
		return
	}
	go s.serveConn(transportws.Wrap(conn))
}

func (s *Server) acceptQUIC(ctx context.Context, listener *transportquic.Listener) {
	for {
		conn, err := listener.Accept(ctx)
		if err != nil {
			if atomic.LoadInt32(&s.running) == 1 && ctx.Err() == nil {
				s.logger.Warn("quic accept failed", log.Error(err))
			}
			return
		}
		go s.serveConn(conn)
	}
}

// serveConn owns one viewer link: register, catch the viewer up, then relay
// until the link drops.
func (s *Server) serveConn(conn transport.Conn) {
	c := &client{id: uuid.New().String(), conn: conn}
	logger := s.logger.With(log.String("client", c.id), log.String("remote", conn.RemoteAddr()))

	s.mu.Lock()
	s.clients[c.id] = c
	catchUp := s.catchUpFramesLocked()
	clientCount := len(s.clients)
	s.mu.Unlock()

	logger.Info("client connected", log.Int("clients", clientCount))

	for _, frame := range catchUp {
		if err := conn.Send(frame); err != nil {
			logger.Debug("catch-up send failed", log.Error(err))
			break
		}
	}

	defer func() {
		s.mu.Lock()
		delete(s.clients, c.id)
		remaining := len(s.clients)
		s.mu.Unlock()
		_ = conn.Close()
		logger.Info("client disconnected", log.Int("clients", remaining))
	}()

	for {
		raw, err := conn.Receive()
		if err != nil {
			return
		}
		s.relay(c.id, raw, logger)
	}
}

// relay validates one inbound frame, applies it to the relay's board and
// fans the raw payload out to every other client. Undecodable frames and
// unknown entities are dropped here so a misbehaving viewer cannot pollute
// the others.
func (s *Server) relay(senderID string, raw []byte, logger log.Log) {
	msg, err := protocol.Decode(raw)
	if err != nil {
		logger.Debug("dropping undecodable frame", log.Error(err))
		return
	}

	s.mu.Lock()
	switch m := msg.(type) {
	case protocol.ColorUpdate:
		if !s.world.SetColor(m.Entity, m.Color()) {
			s.mu.Unlock()
			logger.Debug("dropping update for unknown entity", log.Uint32("entity", uint32(m.Entity)))
			return
		}
	case protocol.Click:
		// Informational; passed through untouched.
	}
	targets := make([]*client, 0, len(s.clients))
	for id, c := range s.clients {
		if id != senderID {
			targets = append(targets, c)
		}
	}
	s.mu.Unlock()

	for _, c := range targets {
		if err := c.conn.Send(raw); err != nil {
			logger.Debug("broadcast send failed", log.String("target", c.id), log.Error(err))
		}
	}
}

// catchUpFramesLocked encodes one ColorUpdate per cell that differs from the
// default white, so a late joiner's independently initialized board
// converges immediately.
func (s *Server) catchUpFramesLocked() [][]byte {
	var frames [][]byte
	for entity := ecs.EntityID(0); entity < s.world.Count(); entity++ {
		color, ok := s.world.Color(entity)
		if !ok || color == ecs.White {
			continue
		}
		data, err := protocol.Encode(protocol.NewColorUpdate(entity, color))
		if err != nil {
			continue
		}
		frames = append(frames, data)
	}
	return frames
}

// Digest returns the relay board's color digest.
func (s *Server) Digest() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world.ColorDigest()
}

// ClientCount reports the number of connected viewers.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
