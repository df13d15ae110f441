// Command termview is the terminal board viewer. Left-click toggles a cell;
// q or Escape quits.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/gridsync/gridsync/internal/config"
	"github.com/gridsync/gridsync/internal/core/session"
	"github.com/gridsync/gridsync/internal/observability/log"
	"github.com/gridsync/gridsync/internal/render/term"
	"github.com/gridsync/gridsync/internal/transport"
	transportquic "github.com/gridsync/gridsync/internal/transport/quic"
	transportws "github.com/gridsync/gridsync/internal/transport/websocket"
)

const (
	cellCharsWide = 6
	cellCharsHigh = 3
)

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

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error creating screen:", err)
		os.Exit(1)
	}
	if err = screen.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing screen:", err)
		os.Exit(1)
	}
	defer screen.Fini()
	screen.EnableMouse()

	surface := term.New(screen, cfg.Grid.CellSize, cellCharsWide, cellCharsHigh)
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
		if err = sess.Connect(ctx, dialer, cfg.Viewer.URL); err != nil {
			logger.Warn("connect failed, running local-only", log.String("url", cfg.Viewer.URL), log.Error(err))
		}
		cancel()
	}

	sess.Redraw()

	var pressed bool
	for {
		switch ev := screen.PollEvent().(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
				return
			}
		case *tcell.EventResize:
			screen.Sync()
			sess.Redraw()
		case *tcell.EventMouse:
			if ev.Buttons()&tcell.Button1 != 0 {
				if !pressed {
					pressed = true
					cx, cy := ev.Position()
					x, y := surface.BoardCoords(cx, cy)
					sess.HandleClick(x, y)
				}
			} else {
				pressed = false
			}
		case nil:
			return
		}
	}
}
