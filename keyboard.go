package telnet

import (
	"fmt"
	"io"
)

// telnetKeyboard is the Client subsidiary that sends outbound bytes to the remote.
// User text, raw bytes and negotiation replies all land in one queue, and the queue
// drains through exactly one outstanding write at a time, so bytes reach the wire in
// the order they were queued.
//
// All methods run on the client's event loop.
type telnetKeyboard struct {
	client   *Client
	charset  *Charset
	queue    *queue[byte]
	maxChunk int

	output  io.Writer
	writing bool
}

func newTelnetKeyboard(client *Client, charset *Charset, maxChunk int) *telnetKeyboard {
	return &telnetKeyboard{
		client:   client,
		charset:  charset,
		queue:    newQueue[byte](64),
		maxChunk: maxChunk,
	}
}

// attach starts writing to output, beginning with anything queued while the
// connection was still being established
func (k *telnetKeyboard) attach(output io.Writer) {
	k.output = output
	if k.queue.Len() > 0 && !k.writing {
		k.writeStart()
	}
}

// detach stops all further writes and discards whatever is still queued. A write that
// is already in flight finishes against the closed connection.
func (k *telnetKeyboard) detach() {
	k.output = nil
	k.queue.Clear()
}

func (k *telnetKeyboard) queueBytes(b []byte) {
	if len(b) == 0 || k.client.State() == StateClosed {
		return
	}

	k.queue.Queue(b...)

	if !k.writing && k.output != nil {
		k.writeStart()
	}
}

// queueData queues bytes destined for the remote's data stream, doubling any IAC so
// the remote does not read it as the start of a command
func (k *telnetKeyboard) queueData(b []byte) {
	escaped := make([]byte, 0, len(b))
	for _, c := range b {
		escaped = append(escaped, c)
		if c == IAC {
			escaped = append(escaped, IAC)
		}
	}

	k.queueBytes(escaped)
}

func (k *telnetKeyboard) queueText(text string) error {
	b, err := k.charset.Encode(text)
	if err != nil {
		return fmt.Errorf("encode outbound text: %w", err)
	}

	k.client.outboundTextHooks.Fire(k.client, text)
	k.queueData(b)
	return nil
}

func (k *telnetKeyboard) queueCommand(c Command) {
	k.client.outboundCommandHooks.Fire(k.client, c)
	k.queueBytes(c.Bytes())
}

func (k *telnetKeyboard) writeStart() {
	pending := k.queue.Buffer()
	size := len(pending)
	if k.maxChunk > 0 && size > k.maxChunk {
		size = k.maxChunk
	}

	// The queue may be compacted by later producers while the write is in flight, so
	// the writer gets its own copy
	chunk := append([]byte(nil), pending[:size]...)
	output := k.output
	k.writing = true

	go func() {
		n, err := output.Write(chunk)
		k.client.pump.post(func() {
			k.writeComplete(n, err)
		})
	}()
}

func (k *telnetKeyboard) writeComplete(n int, err error) {
	k.writing = false

	if k.output == nil {
		return
	}

	if err != nil {
		k.client.shutdown(fmt.Errorf("write: %w", err))
		return
	}

	k.queue.DropElements(n)
	if k.queue.Len() > 0 {
		k.writeStart()
	}
}
