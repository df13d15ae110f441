// Package config loads relay and viewer settings from JSON or YAML.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gridsync/gridsync/internal/core/grid"
)

// Transport kinds a viewer can dial the relay with.
const (
	TransportWebSocket = "websocket"
	TransportQUIC      = "quic"
)

type Config struct {
	LogLevel string       `json:"log_level" yaml:"log_level"`
	Grid     grid.Config  `json:"grid" yaml:"grid"`
	Server   ServerConfig `json:"server" yaml:"server"`
	Viewer   ViewerConfig `json:"viewer" yaml:"viewer"`
}

type ServerConfig struct {
	ListenAddr string `json:"listen_addr" yaml:"listen_addr"`
	QUICAddr   string `json:"quic_addr,omitempty" yaml:"quic_addr,omitempty"`
}

type ViewerConfig struct {
	// URL is the relay endpoint, e.g. ws://127.0.0.1:8080/ws. Empty runs the
	// viewer in local-only mode with the sync link disabled.
	URL       string `json:"url,omitempty" yaml:"url,omitempty"`
	Transport string `json:"transport,omitempty" yaml:"transport,omitempty"`
}

func Default() Config {
	return Config{
		LogLevel: "info",
		Grid:     grid.DefaultConfig(),
		Server: ServerConfig{
			ListenAddr: "127.0.0.1:8080",
		},
		Viewer: ViewerConfig{
			Transport: TransportWebSocket,
		},
	}
}

// LoadYAML loads config from a YAML reader, on top of defaults.
func LoadYAML(r io.Reader) (Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&c); err != nil {
		return Config{}, err
	}
	return c, c.Validate()
}

// LoadJSON loads config from a JSON reader, on top of defaults.
func LoadJSON(r io.Reader) (Config, error) {
	c := Default()
	dec := json.NewDecoder(r)
	if err := dec.Decode(&c); err != nil {
		return Config{}, err
	}
	return c, c.Validate()
}

// Load reads a config file, picking the format from the extension.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	switch filepath.Ext(path) {
	case ".json":
		return LoadJSON(f)
	default:
		return LoadYAML(f)
	}
}

func (c Config) Validate() error {
	if c.Grid.Dim <= 0 {
		return fmt.Errorf("config: grid dim must be positive, got %d", c.Grid.Dim)
	}
	if c.Grid.CellSize <= 0 {
		return fmt.Errorf("config: grid cell_size must be positive, got %v", c.Grid.CellSize)
	}
	switch c.Viewer.Transport {
	case "", TransportWebSocket, TransportQUIC:
	default:
		return fmt.Errorf("config: unknown viewer transport %q", c.Viewer.Transport)
	}
	return nil
}
