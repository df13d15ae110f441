// Package quic carries sync frames over a QUIC link, as an alternative to
// WebSocket. Each connection uses one bidirectional stream with
// newline-delimited text frames.
package quic

import (
	"bufio"
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/quic-go/quic-go"

	"github.com/gridsync/gridsync/internal/transport"
)

const alpnProtocol = "gridsync-quic"

var _ transport.Conn = (*Conn)(nil)

// Conn is one QUIC link. Frames are newline-delimited; payloads are JSON and
// never contain a raw newline themselves.
type Conn struct {
	session *quic.Conn
	stream  *quic.Stream
	reader  *bufio.Reader
	writeMu sync.Mutex
	closed  int32
}

func newConn(session *quic.Conn, stream *quic.Stream) *Conn {
	return &Conn{
		session: session,
		stream:  stream,
		reader:  bufio.NewReader(stream),
	}
}

// Dial connects to a relay's QUIC endpoint. Relays run on self-signed
// development certificates, so verification is skipped.
func Dial(ctx context.Context, addr string) (*Conn, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: true,
		NextProtos:         []string{alpnProtocol},
	}
	quicConfig := &quic.Config{
		MaxIdleTimeout: 60 * time.Second,
	}

	session, err := quic.DialAddr(ctx, addr, tlsConfig, quicConfig)
	if err != nil {
		return nil, errors.Wrapf(err, "quic dial %s", addr)
	}

	stream, err := session.OpenStreamSync(ctx)
	if err != nil {
		_ = session.CloseWithError(0, "failed to open stream")
		return nil, errors.Wrap(err, "quic open stream")
	}

	// An empty frame forces the stream open on the peer, whose AcceptStream
	// only fires once data arrives. Receivers skip empty frames.
	if _, err = stream.Write([]byte{'\n'}); err != nil {
		_ = session.CloseWithError(0, "failed to open stream")
		return nil, errors.Wrap(err, "quic stream handshake")
	}

	return newConn(session, stream), nil
}

func (c *Conn) Send(data []byte) error {
	if atomic.LoadInt32(&c.closed) == 1 {
		return transport.ErrClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	frame := make([]byte, 0, len(data)+1)
	frame = append(frame, data...)
	frame = append(frame, '\n')
	if _, err := c.stream.Write(frame); err != nil {
		return errors.Wrap(err, "quic write")
	}
	return nil
}

func (c *Conn) Receive() ([]byte, error) {
	if atomic.LoadInt32(&c.closed) == 1 {
		return nil, transport.ErrClosed
	}

	for {
		line, err := c.reader.ReadBytes('\n')
		if err != nil {
			return nil, errors.Wrap(err, "quic read")
		}
		line = bytes.TrimRight(line, "\n")
		if len(line) == 0 {
			continue
		}
		return line, nil
	}
}

func (c *Conn) RemoteAddr() string {
	return c.session.RemoteAddr().String()
}

func (c *Conn) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	_ = c.stream.Close()
	return c.session.CloseWithError(0, "closed")
}

// Dialer adapts Dial to the transport.Dialer interface.
type Dialer struct{}

func (Dialer) Dial(ctx context.Context, addr string) (transport.Conn, error) {
	return Dial(ctx, addr)
}

var _ transport.Listener = (*Listener)(nil)

// Listener accepts QUIC links on the relay side.
type Listener struct {
	listener *quic.Listener
}

// Listen starts a QUIC listener on addr. A nil tlsConfig falls back to a
// fresh self-signed certificate.
func Listen(addr string, tlsConfig *tls.Config) (*Listener, error) {
	if tlsConfig == nil {
		var err error
		tlsConfig, err = GenerateSelfSignedTLS()
		if err != nil {
			return nil, errors.Wrap(err, "quic generate tls config")
		}
	}

	listener, err := quic.ListenAddr(addr, tlsConfig, &quic.Config{
		MaxIdleTimeout: 60 * time.Second,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "quic listen %s", addr)
	}
	return &Listener{listener: listener}, nil
}

func (l *Listener) Accept(ctx context.Context) (transport.Conn, error) {
	session, err := l.listener.Accept(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "quic accept")
	}

	stream, err := session.AcceptStream(ctx)
	if err != nil {
		_ = session.CloseWithError(0, "failed to accept stream")
		return nil, errors.Wrap(err, "quic accept stream")
	}

	return newConn(session, stream), nil
}

func (l *Listener) Addr() string {
	return l.listener.Addr().String()
}

func (l *Listener) Close() error {
	return l.listener.Close()
}

// GenerateSelfSignedTLS builds a throwaway certificate for development and
// tests.
func GenerateSelfSignedTLS() (*tls.Config, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			Organization: []string{"gridsync"},
		},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IPAddresses:           []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		DNSNames:              []string{"localhost"},
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	if err != nil {
		return nil, err
	}

	cert := tls.Certificate{
		Certificate: [][]byte{certDER},
		PrivateKey:  privateKey,
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{alpnProtocol},
		MinVersion:   tls.VersionTLS13,
	}, nil
}
