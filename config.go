package telnet

import (
	"net"
	"time"
)

// Delivery indicates how decoded text is handed to Line hooks
type Delivery byte

const (
	// DeliverChunks fires the Line hooks once per read with all the text that read
	// produced, embedded newlines included.
	DeliverChunks Delivery = iota
	// DeliverLines fires the Line hooks once per completed line, newline included, and
	// once more for any partial line left when the read is exhausted.
	DeliverLines
)

const (
	defaultReadBufferSize = 1024
	defaultNetwork        = "tcp"
)

type ClientConfig struct {
	// Dialer opens connections to candidate addresses. A zero net.Dialer is used when
	// left nil. Anything with a DialContext method will do, which lets alternative
	// transports such as wsdial stand in for TCP.
	Dialer Dialer

	// Network is passed to the Dialer. Defaults to "tcp".
	Network string

	// ConnectTimeout bounds each individual connection attempt. Zero means attempts
	// only end when the dialer gives up.
	ConnectTimeout time.Duration

	// ReadBufferSize is the capacity of the buffer filled by each read from the
	// connection. Defaults to 1024.
	ReadBufferSize int

	// MaxWriteChunk caps how many queued bytes are handed to a single write. Zero sends
	// everything queued at once; 1 sends one byte per write.
	MaxWriteChunk int

	// CharsetName is the registered IANA name of the character set used to decode text
	// from the remote and encode text sent with SendString. When empty, bytes pass through
	// untouched.
	CharsetName string

	// DeniedOptions lists the telopts the client refuses to activate when the remote asks
	// it to. Nil uses DefaultDeniedOptions; an empty non-nil slice refuses nothing.
	DeniedOptions []TelOptCode

	// Delivery selects whether Line hooks receive text once per read or once per line.
	Delivery Delivery

	// EventHooks is a set of callbacks that the client will call when the relevant
	// event occurs.  You can register additional callbacks after creation with
	// Client.Register* methods.
	EventHooks EventHooks
}

func (c ClientConfig) withDefaults() ClientConfig {
	if c.Dialer == nil {
		c.Dialer = &net.Dialer{}
	}

	if c.Network == "" {
		c.Network = defaultNetwork
	}

	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = defaultReadBufferSize
	}

	if c.MaxWriteChunk < 0 {
		c.MaxWriteChunk = 0
	}

	return c
}
