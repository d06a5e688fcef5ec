package telnet

import (
	"github.com/charmbracelet/x/ansi"
)

// decodeResult is everything a single decode pass produced besides the commands,
// which are dispatched as they are found
type decodeResult struct {
	// text holds what should be delivered to Line hooks, in order
	text []string
	// completedLine is set when at least one newline was seen during the pass
	completedLine bool

	// startCompression is set when the remote began an MCCP2 compressed stream.
	// compressed holds the bytes of this chunk that follow the start marker, which
	// belong to the compressed stream and must be decompressed before anything else.
	startCompression bool
	compressed       []byte
}

// frameDecoder separates a telnet byte stream into text and commands.  Input arrives
// in arbitrarily-split chunks, so a command or escape pair cut off at the end of one
// chunk is held as a pending fragment and completed by the next one.  The fragment is
// never longer than two bytes: the longest thing held is IAC plus a negotiation verb.
//
// ESC and the byte following it are dropped without any further interpretation. Only
// the two-byte form is recognised.
type frameDecoder struct {
	work     *queue[byte]
	charset  *Charset
	delivery Delivery

	line      []byte
	lineStart int
	lastLine  string

	inSubnegotiation     bool
	subnegotiationOption TelOptCode
}

func newFrameDecoder(charset *Charset, delivery Delivery) *frameDecoder {
	return &frameDecoder{
		work:     newQueue[byte](defaultReadBufferSize),
		charset:  charset,
		delivery: delivery,
		line:     make([]byte, 0, defaultReadBufferSize),
	}
}

// pending returns the fragment held over from the previous pass
func (d *frameDecoder) pending() []byte {
	return d.work.Buffer()
}

// LastLine returns the most recent newline-terminated line, undecoded
func (d *frameDecoder) LastLine() string {
	return d.lastLine
}

func (d *frameDecoder) appendText(b byte, result *decodeResult) {
	d.line = append(d.line, b)

	if b != '\n' {
		return
	}

	d.lastLine = string(d.line[d.lineStart:])
	d.lineStart = len(d.line)
	result.completedLine = true

	if d.delivery == DeliverLines {
		d.flush(result)
	}
}

func (d *frameDecoder) flush(result *decodeResult) {
	if len(d.line) > 0 {
		text := d.charset.Decode(d.line)
		if text != "" {
			result.text = append(result.text, text)
		}
	}

	d.line = d.line[:0]
	d.lineStart = 0
}

// decode runs one pass over the pending fragment followed by chunk. Commands are handed
// to dispatch in the order they appear; text is collected into the result and flushed
// once the pass ends.
func (d *frameDecoder) decode(chunk []byte, dispatch func(Command)) decodeResult {
	var result decodeResult

	d.work.Queue(chunk...)
	data := d.work.Buffer()
	index := 0

decodeLoop:
	for index < len(data) {
		b := data[index]

		if d.inSubnegotiation {
			if b != IAC {
				index++
				continue
			}

			if len(data)-index < 2 {
				break decodeLoop
			}

			opCode := data[index+1]
			index += 2

			if opCode != SE {
				// IAC IAC is an escaped data byte, anything else is noise inside the
				// subnegotiation
				continue
			}

			d.inSubnegotiation = false
			dispatch(Command{OpCode: SE})

			if d.subnegotiationOption == TelOptMCCP2 {
				result.startCompression = true
				result.compressed = append([]byte(nil), data[index:]...)
				index = len(data)
				break decodeLoop
			}

			continue
		}

		switch b {
		case IAC:
			if len(data)-index < 2 {
				break decodeLoop
			}

			if data[index+1] == IAC {
				d.appendText(IAC, &result)
				index += 2
				continue
			}

			size := commandSize(data[index+1])
			if len(data)-index < size {
				break decodeLoop
			}

			c, err := parseCommand(data[index : index+size])
			index += size
			if err != nil {
				continue
			}

			if c.OpCode == SB {
				d.inSubnegotiation = true
				d.subnegotiationOption = c.Option
			}

			dispatch(c)

		case ansi.ESC:
			if len(data)-index < 2 {
				break decodeLoop
			}

			index += 2

		default:
			d.appendText(b, &result)
			index++
		}
	}

	// Whatever was not consumed is the pending fragment for the next pass
	d.work.DropElements(index)
	d.flush(&result)

	return result
}

// reset forgets all decode state, including any pending fragment
func (d *frameDecoder) reset() {
	d.work.Clear()
	d.line = d.line[:0]
	d.lineStart = 0
	d.inSubnegotiation = false
	d.charset.Reset()
}
