package utils

import (
	"bufio"
	"errors"
	"io"

	telnet "github.com/moodclient/telnetclient"
)

// CtrlC is the byte a raw-mode terminal produces for Ctrl+C
const CtrlC byte = 0x03

type KeyboardFeedConfig struct {
	// ExitByte ends the feed without being sent. Zero disables it.
	ExitByte byte
	// TranslateCR sends a lone carriage return, which is what a raw-mode terminal
	// produces for Enter, as the telnet end of line CR LF
	TranslateCR bool
}

// KeyboardFeed pushes keystrokes from an input stream to a client one byte at a time
type KeyboardFeed struct {
	client *telnet.Client
	input  io.Reader
	config KeyboardFeedConfig
}

func NewKeyboardFeed(client *telnet.Client, input io.Reader, config KeyboardFeedConfig) *KeyboardFeed {
	return &KeyboardFeed{
		client: client,
		input:  input,
		config: config,
	}
}

// FeedLoop reads until the input ends, the exit byte is typed, or the client closes.
// Only a failed read is reported as an error.
func (f *KeyboardFeed) FeedLoop() error {
	reader := bufio.NewReader(f.input)

	for f.client.State() != telnet.StateClosed {
		b, err := reader.ReadByte()
		if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return err
		}

		if f.config.ExitByte != 0 && b == f.config.ExitByte {
			return nil
		}

		if f.config.TranslateCR && b == '\r' {
			f.client.SendString("\r\n")
			continue
		}

		f.client.SendByte(b)
	}

	return nil
}
