// Command viewer is the windowed board viewer. Click a cell to toggle it;
// connected viewers converge through the relay.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/gridsync/gridsync/internal/config"
	"github.com/gridsync/gridsync/internal/core/session"
	"github.com/gridsync/gridsync/internal/observability/log"
	ebitenrender "github.com/gridsync/gridsync/internal/render/ebiten"
	"github.com/gridsync/gridsync/internal/transport"
	transportquic "github.com/gridsync/gridsync/internal/transport/quic"
	transportws "github.com/gridsync/gridsync/internal/transport/websocket"
)

type game struct {
	session *session.Session
	surface *ebitenrender.Surface
	edge    int
}

func (g *game) Update() error {
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		// Cursor coordinates are already local to the board surface.
		x, y := ebiten.CursorPosition()
		g.session.HandleClick(float64(x), float64(y))
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	g.surface.SetTarget(screen)
	g.session.Redraw()
	g.surface.SetTarget(nil)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.edge, g.edge
}

func main() {
	configPath := flag.String("config", "", "path to a JSON or YAML config file")
	url := flag.String("url", "", "relay endpoint, e.g. ws://127.0.0.1:8080/ws (empty runs local-only)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error loading config:", err)
			os.Exit(1)
		}
	}
	if *url != "" {
		cfg.Viewer.URL = *url
	}

	logger := log.New(log.ParseLevel(cfg.LogLevel))

	surface := ebitenrender.New()
	sess := session.New(cfg.Grid, surface, logger)
	defer sess.Close()

	if cfg.Viewer.URL != "" {
		var dialer transport.Dialer
		switch cfg.Viewer.Transport {
		case config.TransportQUIC:
			dialer = transportquic.Dialer{}
		default:
			dialer = transportws.Dialer{}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := sess.Connect(ctx, dialer, cfg.Viewer.URL); err != nil {
			logger.Warn("connect failed, running local-only", log.String("url", cfg.Viewer.URL), log.Error(err))
		}
		cancel()
	}

	edge := int(cfg.Grid.PixelSize())
	ebiten.SetWindowSize(edge, edge)
	ebiten.SetWindowTitle("gridsync")

	if err := ebiten.RunGame(&game{session: sess, surface: surface, edge: edge}); err != nil {
		fmt.Fprintln(os.Stderr, "Error running viewer:", err)
		os.Exit(1)
	}
}
