package telnet

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// wireReader yields raw bytes from the connection, preceded by any bytes that were
// already received but handed back to be read again.  It implements io.ByteReader so
// zlib reads exactly as far as the end of a compressed stream and no further.
type wireReader struct {
	prefix []byte
	conn   *bufio.Reader
}

func (w *wireReader) Read(p []byte) (int, error) {
	if len(w.prefix) > 0 {
		n := copy(p, w.prefix)
		w.prefix = w.prefix[n:]
		return n, nil
	}

	return w.conn.Read(p)
}

func (w *wireReader) ReadByte() (byte, error) {
	if len(w.prefix) > 0 {
		b := w.prefix[0]
		w.prefix = w.prefix[1:]
		return b, nil
	}

	return w.conn.ReadByte()
}

// inboundStream is what the printer reads from. It reads the connection directly until
// the remote starts an MCCP2 compressed stream, inflates until that stream ends, then
// goes back to reading plain bytes.
//
// The stream is used by one read at a time; startCompression must only be called while
// no read is outstanding.
type inboundStream struct {
	wire        wireReader
	compressing bool
	inflater    io.ReadCloser
}

func newInboundStream(conn io.Reader) *inboundStream {
	return &inboundStream{
		wire: wireReader{conn: bufio.NewReader(conn)},
	}
}

// startCompression switches the stream to decompression. rest holds bytes from the
// current read that already belong to the compressed stream.
func (s *inboundStream) startCompression(rest []byte) {
	s.wire.prefix = append(s.wire.prefix, rest...)
	s.compressing = true
}

func (s *inboundStream) Read(p []byte) (int, error) {
	if !s.compressing {
		return s.wire.Read(p)
	}

	if s.inflater == nil {
		// Reading the zlib header blocks, so the inflater is built by the read rather
		// than by startCompression
		inflater, err := zlib.NewReader(&s.wire)
		if err != nil {
			return 0, fmt.Errorf("mccp2: %w", err)
		}
		s.inflater = inflater
	}

	n, err := s.inflater.Read(p)
	if errors.Is(err, io.EOF) {
		// The remote ended compression; what follows is plain telnet again
		_ = s.inflater.Close()
		s.inflater = nil
		s.compressing = false
		return n, nil
	}

	if err != nil {
		return n, fmt.Errorf("mccp2: %w", err)
	}

	return n, nil
}
