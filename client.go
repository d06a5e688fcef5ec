package telnet

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
)

var (
	// ErrClosed is returned by WaitForExit when the connection was closed by the
	// construction context being cancelled
	ErrClosed = errors.New("telnet: client closed")
	// ErrCandidatesExhausted is the close cause when no candidate address accepted
	// a connection
	ErrCandidatesExhausted = errors.New("telnet: no candidate address accepted a connection")
)

// State is the lifecycle stage of a Client
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Client is the client side of a telnet connection.  It connects to the first
// candidate address that will accept it, answers option negotiation on the consumer's
// behalf, and hands received text to the registered Line hooks.
//
// Telnet is full duplex: reads and writes proceed independently. Both are driven by a
// single event loop goroutine that owns the connection and all decode and write
// state.  Outbound data queued with SendByte, SendString or SendCommand is marshalled
// onto that loop and written in the order it was queued, one write at a time.
//
// Hooks are called from the event loop.  A hook that blocks stalls the connection,
// so long-running work belongs on the consumer's own goroutines.  Hooks may call any
// Client method, Close included.
//
// Failures never come back from the Send methods. A connection that cannot be
// established, or a read or write that fails, closes the client and fires the Closed
// hooks once with the cause.
type Client struct {
	config ClientConfig
	pump   *eventPump
	policy *NegotiationPolicy

	state    atomic.Int32
	lastLine atomic.Pointer[string]
	exitErr  error

	lineHooks            *EventPublisher[string]
	closedHooks          *EventPublisher[error]
	inboundCommandHooks  *EventPublisher[Command]
	outboundCommandHooks *EventPublisher[Command]
	outboundTextHooks    *EventPublisher[string]
	connectAttemptHooks  *EventPublisher[ConnectAttempt]

	// Owned by the event loop
	loopCtx     context.Context
	loopCancel  context.CancelFunc
	candidates  []string
	attemptErrs []error
	connecting  bool
	conn        net.Conn
	keyboard    *telnetKeyboard
	printer     *telnetPrinter
}

// NewClient starts connecting to candidates in order and returns immediately. The
// candidate slice is copied.  An error is only returned for an unusable config, such
// as an unknown charset name.
//
// Cancelling ctx closes the client as though the connection had failed, firing the
// Closed hooks.
func NewClient(ctx context.Context, candidates []string, config ClientConfig) (*Client, error) {
	config = config.withDefaults()

	decodeCharset, err := NewCharset(config.CharsetName)
	if err != nil {
		return nil, err
	}

	encodeCharset, err := NewCharset(config.CharsetName)
	if err != nil {
		return nil, err
	}

	loopCtx, loopCancel := context.WithCancel(context.Background())

	client := &Client{
		config:     config,
		pump:       newEventPump(),
		policy:     NewNegotiationPolicy(config.DeniedOptions),
		loopCtx:    loopCtx,
		loopCancel: loopCancel,
		candidates: append([]string(nil), candidates...),

		lineHooks:            NewPublisher(config.EventHooks.Line),
		closedHooks:          NewPublisher(config.EventHooks.Closed),
		inboundCommandHooks:  NewPublisher(config.EventHooks.InboundCommand),
		outboundCommandHooks: NewPublisher(config.EventHooks.OutboundCommand),
		outboundTextHooks:    NewPublisher(config.EventHooks.OutboundText),
		connectAttemptHooks:  NewPublisher(config.EventHooks.ConnectAttempt),
	}
	client.keyboard = newTelnetKeyboard(client, encodeCharset, config.MaxWriteChunk)
	client.printer = newTelnetPrinter(client, decodeCharset, config.ReadBufferSize, config.Delivery)

	client.setState(StateConnecting)
	go client.pump.run(client.connectStart, client.finished)

	go func() {
		select {
		case <-ctx.Done():
			client.pump.post(func() {
				client.shutdown(errors.Join(ErrClosed, ctx.Err()))
			})
		case <-client.pump.done:
		}
	}()

	return client, nil
}

// State returns the client's current lifecycle stage
func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) setState(state State) {
	c.state.Store(int32(state))
}

// LastLine returns the most recently received complete line, newline included and
// before charset decoding.  It is meant for diagnostics.
func (c *Client) LastLine() string {
	line := c.lastLine.Load()
	if line == nil {
		return ""
	}

	return *line
}

// finished reports whether the event loop may exit: the client is closed and no
// connect, read or write is still in flight
func (c *Client) finished() bool {
	return c.State() == StateClosed && !c.connecting && !c.printer.reading && !c.keyboard.writing
}

// receivedCommand is called by the decoder for every command received from the remote
func (c *Client) receivedCommand(cmd Command) {
	c.inboundCommandHooks.Fire(c, cmd)

	reply, ok := c.policy.Respond(cmd)
	if ok {
		c.keyboard.queueCommand(reply)
	}
}

// shutdown closes the connection. The first call moves the client to StateClosed and
// fires the Closed hooks with cause; later calls only make sure the socket is closed.
func (c *Client) shutdown(cause error) {
	c.loopCancel()
	if c.conn != nil {
		_ = c.conn.Close()
	}

	if c.State() == StateClosed {
		return
	}

	c.exitErr = cause
	c.setState(StateClosed)
	c.keyboard.detach()
	c.printer.detach()

	c.closedHooks.Fire(c, cause)
}

func (c *Client) clearHooks() {
	c.lineHooks.Clear()
	c.closedHooks.Clear()
	c.inboundCommandHooks.Clear()
	c.outboundCommandHooks.Clear()
	c.outboundTextHooks.Clear()
	c.connectAttemptHooks.Clear()
}

// Close shuts the connection down and blocks until the event loop has exited. Every
// hook is unregistered before anything else happens, so no hook fires because of the
// close itself. Close is safe to call more than once and from any goroutine; called
// from inside a hook it closes without waiting for the loop, which is still busy
// running that hook.
func (c *Client) Close() {
	c.clearHooks()

	if c.pump.onLoop() {
		c.shutdown(nil)
		return
	}

	c.pump.post(func() {
		c.shutdown(nil)
	})
	<-c.pump.done
}

// Done returns a channel that is closed once the client has shut down and its event
// loop has exited
func (c *Client) Done() <-chan struct{} {
	return c.pump.done
}

// WaitForExit blocks until the event loop has exited and returns the reason the
// client closed, which is nil after an explicit Close
func (c *Client) WaitForExit() error {
	<-c.pump.done
	return c.exitErr
}

// SendByte queues a single byte, such as one keystroke, for the remote. IAC is escaped.
func (c *Client) SendByte(b byte) {
	c.pump.post(func() {
		c.keyboard.queueData([]byte{b})
	})
}

// SendString queues text for the remote, encoded with the configured charset
func (c *Client) SendString(text string) {
	if len(text) == 0 {
		return
	}

	c.pump.post(func() {
		err := c.keyboard.queueText(text)
		if err != nil {
			c.shutdown(err)
		}
	})
}

// SendCommand queues a raw IAC command for the remote. Negotiation is handled by the
// client itself, so this is mostly useful for commands like IAC AYT or IAC IP.
func (c *Client) SendCommand(cmd Command) {
	c.pump.post(func() {
		c.keyboard.queueCommand(cmd)
	})
}

// RegisterLineHook will register an event to be called when text arrives from the remote
func (c *Client) RegisterLineHook(line LineHandler) {
	c.lineHooks.Register(EventHook[string](line))
}

// RegisterClosedHook will register an event to be called when the connection closes
// for any reason other than a call to Close
func (c *Client) RegisterClosedHook(closed ClosedHandler) {
	c.closedHooks.Register(EventHook[error](closed))
}

// RegisterInboundCommandHook will register an event to be called for each command
// received from the remote. This is primarily useful for debug logging.
func (c *Client) RegisterInboundCommandHook(inboundCommand CommandHandler) {
	c.inboundCommandHooks.Register(EventHook[Command](inboundCommand))
}

// RegisterOutboundCommandHook will register an event to be called when a command
// is queued for the remote. This is primarily useful for debug logging.
func (c *Client) RegisterOutboundCommandHook(outboundCommand CommandHandler) {
	c.outboundCommandHooks.Register(EventHook[Command](outboundCommand))
}

// RegisterOutboundTextHook will register an event to be called when text is queued
// with SendString. This is primarily useful for debug logging.
func (c *Client) RegisterOutboundTextHook(outboundText StringHandler) {
	c.outboundTextHooks.Register(EventHook[string](outboundText))
}

// RegisterConnectAttemptHook will register an event to be called after each attempt
// to connect to a candidate address
func (c *Client) RegisterConnectAttemptHook(connectAttempt ConnectAttemptHandler) {
	c.connectAttemptHooks.Register(EventHook[ConnectAttempt](connectAttempt))
}
