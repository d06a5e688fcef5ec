package telnet

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// Charset converts between the bytes on the wire and the UTF-8 strings handed to
// and received from the consumer.  A Charset with no name passes bytes through
// untouched, which is how a plain telnet client behaves: whatever the remote sends
// is what the consumer sees.
//
// Decoding is incremental.  A multibyte character that was split across two reads
// is held until the rest of it arrives, so the consumer never sees half of a
// character rendered as a replacement rune.
//
// A Charset is not safe for concurrent use. The client only touches it from its
// event loop.
type Charset struct {
	name    string
	encoder *encoding.Encoder
	decoder transform.Transformer

	dangling []byte
}

// NewCharset builds a Charset from a registered IANA name. An empty name produces
// a pass-through charset.
func NewCharset(codePage string) (*Charset, error) {
	if codePage == "" {
		return &Charset{}, nil
	}

	if strings.EqualFold(codePage, "utf-8") {
		// The Replacement encoder leaves valid UTF-8 alone and swaps bad runes
		// for the replacement character, which is exactly what decoding should do
		return &Charset{
			name:    "UTF-8",
			encoder: encoding.Replacement.NewEncoder(),
			decoder: encoding.Replacement.NewEncoder(),
		}, nil
	}

	enc, err := ianaindex.IANA.Encoding(codePage)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, errors.New("ianaindex: unsupported encoding")
	}
	name, err := ianaindex.IANA.Name(enc)
	if err != nil {
		return nil, err
	}

	var decoder transform.Transformer = enc.NewDecoder()
	if strings.EqualFold(codePage, "us-ascii") {
		// Plenty of remotes that never negotiate anything send UTF-8 anyway. Read it,
		// but only ever write ASCII.
		decoder = encoding.Replacement.NewEncoder()
	}

	return &Charset{
		name:    name,
		encoder: encoding.ReplaceUnsupported(enc.NewEncoder()),
		decoder: decoder,
	}, nil
}

// Name returns the IANA name of the charset, or an empty string for pass-through
func (c *Charset) Name() string {
	return c.name
}

// Encode converts UTF-8 text to the wire encoding
func (c *Charset) Encode(utf8Text string) ([]byte, error) {
	if c.encoder == nil {
		return []byte(utf8Text), nil
	}

	return c.encoder.Bytes([]byte(utf8Text))
}

// Decode converts wire bytes to UTF-8 text. Trailing bytes that do not yet form a
// complete character are held back and prepended to the next call.
func (c *Charset) Decode(incoming []byte) string {
	if c.decoder == nil {
		return string(incoming)
	}

	src := append(c.dangling, incoming...)

	var sb strings.Builder
	var buffer [256]byte

	for len(src) > 0 {
		nDst, nSrc, err := c.decoder.Transform(buffer[:], src, false)
		sb.Write(buffer[:nDst])
		src = src[nSrc:]

		if err == nil || errors.Is(err, transform.ErrShortDst) {
			continue
		}

		if errors.Is(err, transform.ErrShortSrc) {
			break
		}

		// Undecodable byte: emit a replacement rune and move on
		sb.WriteRune(utf8.RuneError)
		if len(src) > 0 {
			src = src[1:]
		}
	}

	c.dangling = append(c.dangling[:0], src...)
	return sb.String()
}

// Reset drops any partially-received character
func (c *Charset) Reset() {
	c.dangling = c.dangling[:0]
	if c.decoder != nil {
		c.decoder.Reset()
	}
}
