package telnet

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Dialer opens a connection to a single address. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// ConnectAttempt describes the outcome of one connection attempt
type ConnectAttempt struct {
	Address string
	// Err is nil when the attempt succeeded
	Err error
}

// Resolve turns a host and port into the candidate addresses NewClient expects, in the
// order the resolver returned them
func Resolve(ctx context.Context, host string, port string) ([]string, error) {
	addrs, err := net.DefaultResolver.LookupHost(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", host, err)
	}

	candidates := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		candidates = append(candidates, net.JoinHostPort(addr, port))
	}

	return candidates, nil
}

// connectStart tries the next candidate. Once the candidates run out, the client
// closes with an error carrying every failed attempt.
func (c *Client) connectStart() {
	if c.State() == StateClosed {
		return
	}

	if len(c.candidates) == 0 {
		if len(c.attemptErrs) == 0 {
			c.shutdown(ErrCandidatesExhausted)
			return
		}

		c.shutdown(fmt.Errorf("%w: %w", ErrCandidatesExhausted, errors.Join(c.attemptErrs...)))
		return
	}

	address := c.candidates[0]
	c.candidates = c.candidates[1:]

	var dialCtx context.Context
	var dialCancel context.CancelFunc
	if c.config.ConnectTimeout > 0 {
		dialCtx, dialCancel = context.WithTimeout(c.loopCtx, c.config.ConnectTimeout)
	} else {
		dialCtx, dialCancel = context.WithCancel(c.loopCtx)
	}

	dialer := c.config.Dialer
	network := c.config.Network
	c.connecting = true

	go func() {
		conn, err := dialer.DialContext(dialCtx, network, address)
		c.pump.post(func() {
			dialCancel()
			c.connectComplete(address, conn, err)
		})
	}()
}

func (c *Client) connectComplete(address string, conn net.Conn, err error) {
	c.connecting = false

	if c.State() == StateClosed {
		// Closed while the attempt was in flight
		if conn != nil {
			_ = conn.Close()
		}
		return
	}

	c.connectAttemptHooks.Fire(c, ConnectAttempt{Address: address, Err: err})

	if c.State() == StateClosed {
		if conn != nil {
			_ = conn.Close()
		}
		return
	}

	if err != nil {
		if conn != nil {
			_ = conn.Close()
		}

		c.attemptErrs = append(c.attemptErrs, fmt.Errorf("%s: %w", address, err))
		c.connectStart()
		return
	}

	c.conn = conn
	c.setState(StateConnected)
	c.printer.attach(conn)
	c.keyboard.attach(conn)
}
