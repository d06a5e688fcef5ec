// Package wsdial lets a telnet client reach a remote through a WebSocket, the way
// browser-facing MUD and BBS gateways expose their telnet ports.  Each WebSocket
// message carries a slice of the raw telnet byte stream.
package wsdial

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const closeGracePeriod = time.Second

// Dialer opens WebSocket connections and presents them as net.Conn, so it can be used
// as telnet.ClientConfig.Dialer. Candidate addresses are ws:// or wss:// URLs and the
// network argument is ignored.
type Dialer struct {
	// WebSocket is the underlying dialer. websocket.DefaultDialer is used when nil.
	WebSocket *websocket.Dialer
	// Header is sent with the opening handshake
	Header http.Header
	// TextMessages sends outbound bytes as text messages instead of binary ones, for
	// gateways that only accept text frames
	TextMessages bool
}

func (d *Dialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	dialer := d.WebSocket
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	ws, resp, err := dialer.DialContext(ctx, address, d.Header)
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		return nil, fmt.Errorf("websocket dial %s: %w", address, err)
	}

	messageType := websocket.BinaryMessage
	if d.TextMessages {
		messageType = websocket.TextMessage
	}

	return &Conn{ws: ws, messageType: messageType}, nil
}

// Conn adapts a WebSocket connection to net.Conn. Message boundaries are not
// preserved: reads see one continuous byte stream.
type Conn struct {
	ws          *websocket.Conn
	messageType int

	readLock  sync.Mutex
	reader    io.Reader
	writeLock sync.Mutex
}

func (c *Conn) Read(p []byte) (int, error) {
	c.readLock.Lock()
	defer c.readLock.Unlock()

	for {
		if c.reader == nil {
			_, reader, err := c.ws.NextReader()
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return 0, io.EOF
			} else if err != nil {
				return 0, err
			}
			c.reader = reader
		}

		n, err := c.reader.Read(p)
		if errors.Is(err, io.EOF) {
			c.reader = nil
			if n == 0 {
				continue
			}
			return n, nil
		}

		return n, err
	}
}

func (c *Conn) Write(p []byte) (int, error) {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()

	err := c.ws.WriteMessage(c.messageType, p)
	if err != nil {
		return 0, err
	}

	return len(p), nil
}

// Close sends a close frame and closes the underlying connection
func (c *Conn) Close() error {
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(closeGracePeriod))

	return c.ws.Close()
}

func (c *Conn) LocalAddr() net.Addr {
	return c.ws.LocalAddr()
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.ws.RemoteAddr()
}

func (c *Conn) SetDeadline(t time.Time) error {
	if err := c.ws.SetReadDeadline(t); err != nil {
		return err
	}

	return c.ws.SetWriteDeadline(t)
}

func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.ws.SetReadDeadline(t)
}

func (c *Conn) SetWriteDeadline(t time.Time) error {
	return c.ws.SetWriteDeadline(t)
}
