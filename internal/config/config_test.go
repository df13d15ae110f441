package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, 8, c.Grid.Dim)
	assert.Equal(t, 50.0, c.Grid.CellSize)
	assert.Equal(t, TransportWebSocket, c.Viewer.Transport)
	require.NoError(t, c.Validate())
}

func TestLoadYAML(t *testing.T) {
	c, err := LoadYAML(strings.NewReader(`
log_level: debug
grid:
  dim: 16
  cell_size: 32
server:
  listen_addr: 0.0.0.0:9000
  quic_addr: 0.0.0.0:9001
viewer:
  url: ws://example.test:9000/ws
  transport: quic
`))
	require.NoError(t, err)

	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, 16, c.Grid.Dim)
	assert.Equal(t, 32.0, c.Grid.CellSize)
	assert.Equal(t, "0.0.0.0:9000", c.Server.ListenAddr)
	assert.Equal(t, "0.0.0.0:9001", c.Server.QUICAddr)
	assert.Equal(t, "ws://example.test:9000/ws", c.Viewer.URL)
	assert.Equal(t, TransportQUIC, c.Viewer.Transport)
}

func TestLoadYAML_PartialKeepsDefaults(t *testing.T) {
	c, err := LoadYAML(strings.NewReader("log_level: warn\n"))
	require.NoError(t, err)

	assert.Equal(t, "warn", c.LogLevel)
	assert.Equal(t, 8, c.Grid.Dim, "unset fields should keep defaults")
	assert.Equal(t, "127.0.0.1:8080", c.Server.ListenAddr)
}

func TestLoadJSON(t *testing.T) {
	c, err := LoadJSON(strings.NewReader(`{"grid":{"dim":4,"cell_size":100}}`))
	require.NoError(t, err)

	assert.Equal(t, 4, c.Grid.Dim)
	assert.Equal(t, 100.0, c.Grid.CellSize)
}

func TestValidate(t *testing.T) {
	c := Default()
	c.Grid.Dim = 0
	assert.Error(t, c.Validate())

	c = Default()
	c.Grid.CellSize = -1
	assert.Error(t, c.Validate())

	c = Default()
	c.Viewer.Transport = "carrier-pigeon"
	assert.Error(t, c.Validate())

	c = Default()
	c.Viewer.Transport = ""
	assert.NoError(t, c.Validate(), "empty transport falls back to the default")
}
