package quic

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQUIC_Loopback(t *testing.T) {
	listener, err := Listen("127.0.0.1:0", nil)
	require.NoError(t, err)
	defer listener.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	type accepted struct {
		conn *Conn
		err  error
	}
	acceptCh := make(chan accepted, 1)
	go func() {
		conn, acceptErr := listener.Accept(ctx)
		if acceptErr != nil {
			acceptCh <- accepted{err: acceptErr}
			return
		}
		acceptCh <- accepted{conn: conn.(*Conn)}
	}()

	client, err := Dial(ctx, listener.Addr())
	require.NoError(t, err)
	defer client.Close()

	a := <-acceptCh
	require.NoError(t, a.err)
	server := a.conn
	defer server.Close()

	// Client to server.
	require.NoError(t, client.Send([]byte(`{"Click":{"x":1,"y":2}}`)))
	data, err := server.Receive()
	require.NoError(t, err)
	assert.JSONEq(t, `{"Click":{"x":1,"y":2}}`, string(data))

	// Server to client over the same stream.
	require.NoError(t, server.Send([]byte(`{"ColorUpdate":{"entity":0,"r":0,"g":0,"b":0}}`)))
	data, err = client.Receive()
	require.NoError(t, err)
	assert.JSONEq(t, `{"ColorUpdate":{"entity":0,"r":0,"g":0,"b":0}}`, string(data))
}

func TestQUIC_FramesStayWhole(t *testing.T) {
	listener, err := Listen("127.0.0.1:0", nil)
	require.NoError(t, err)
	defer listener.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	acceptCh := make(chan *Conn, 1)
	go func() {
		conn, acceptErr := listener.Accept(ctx)
		if acceptErr == nil {
			acceptCh <- conn.(*Conn)
		}
	}()

	client, err := Dial(ctx, listener.Addr())
	require.NoError(t, err)
	defer client.Close()

	server := <-acceptCh
	defer server.Close()

	frames := []string{`{"Click":{"x":1,"y":1}}`, `{"Click":{"x":2,"y":2}}`, `{"Click":{"x":3,"y":3}}`}
	for _, f := range frames {
		require.NoError(t, client.Send([]byte(f)))
	}

	for _, want := range frames {
		got, recvErr := server.Receive()
		require.NoError(t, recvErr)
		assert.Equal(t, want, string(got), "frames should arrive whole and in order")
	}
}

func TestGenerateSelfSignedTLS(t *testing.T) {
	cfg, err := GenerateSelfSignedTLS()
	require.NoError(t, err)
	assert.Len(t, cfg.Certificates, 1)
	assert.Equal(t, []string{alpnProtocol}, cfg.NextProtos)
}
