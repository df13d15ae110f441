package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/profile"

	"github.com/gridsync/gridsync/internal/config"
	"github.com/gridsync/gridsync/internal/observability/log"
	"github.com/gridsync/gridsync/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON or YAML config file")
	listenAddr := flag.String("listen", "", "override the WebSocket listen address")
	quicAddr := flag.String("quic", "", "override the QUIC listen address")
	profileCPU := flag.Bool("profile", false, "write a CPU profile to the working directory")
	flag.Parse()

	if *profileCPU {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error loading config:", err)
			os.Exit(1)
		}
	}
	if *listenAddr != "" {
		cfg.Server.ListenAddr = *listenAddr
	}
	if *quicAddr != "" {
		cfg.Server.QUICAddr = *quicAddr
	}

	logger := log.New(log.ParseLevel(cfg.LogLevel))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := server.New(server.Config{
		ListenAddr:      cfg.Server.ListenAddr,
		QUICAddr:        cfg.Server.QUICAddr,
		Grid:            cfg.Grid,
		ShutdownTimeout: server.DefaultConfig().ShutdownTimeout,
	}, logger)

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	if err := srv.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error starting server:", err)
		os.Exit(1)
	}

	<-stopCh
	cancel()
	if err := srv.Stop(); err != nil {
		fmt.Fprintln(os.Stderr, "Error stopping server:", err)
	}
}
