package telnet

import (
	"fmt"
	"io"
)

// telnetPrinter is the Client subsidiary that reads from the remote. It keeps exactly
// one read outstanding, decodes each chunk on the event loop, and only then issues
// the next read.
//
// All methods run on the client's event loop.
type telnetPrinter struct {
	client  *Client
	decoder *frameDecoder
	buffer  []byte

	stream  *inboundStream
	reading bool
}

func newTelnetPrinter(client *Client, charset *Charset, bufferSize int, delivery Delivery) *telnetPrinter {
	return &telnetPrinter{
		client:  client,
		decoder: newFrameDecoder(charset, delivery),
		buffer:  make([]byte, bufferSize),
	}
}

func (p *telnetPrinter) attach(input io.Reader) {
	p.stream = newInboundStream(input)
	p.readStart()
}

// detach stops issuing reads and drops any partially decoded input
func (p *telnetPrinter) detach() {
	p.stream = nil
	p.decoder.reset()
}

func (p *telnetPrinter) readStart() {
	stream := p.stream
	buffer := p.buffer
	p.reading = true

	go func() {
		n, err := stream.Read(buffer)
		p.client.pump.post(func() {
			p.readComplete(n, err)
		})
	}()
}

func (p *telnetPrinter) readComplete(n int, err error) {
	p.reading = false

	if p.stream == nil {
		return
	}

	// Bytes that arrived alongside an error are still processed before closing
	if n > 0 {
		p.processChunk(p.buffer[:n])
	}

	if p.stream == nil {
		// A hook closed the client while the chunk was being delivered
		return
	}

	if err != nil {
		p.client.shutdown(fmt.Errorf("read: %w", err))
		return
	}

	p.readStart()
}

func (p *telnetPrinter) processChunk(chunk []byte) {
	result := p.decoder.decode(chunk, p.client.receivedCommand)

	if result.completedLine {
		lastLine := p.decoder.LastLine()
		p.client.lastLine.Store(&lastLine)
	}

	if result.startCompression && p.stream != nil {
		p.stream.startCompression(result.compressed)
	}

	for _, text := range result.text {
		p.client.lineHooks.Fire(p.client, text)
	}
}
