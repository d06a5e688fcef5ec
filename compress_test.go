package telnet

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compressed(t *testing.T, text string) []byte {
	var buffer bytes.Buffer

	writer := zlib.NewWriter(&buffer)
	_, err := writer.Write([]byte(text))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return buffer.Bytes()
}

func readAll(t *testing.T, stream *inboundStream) string {
	var out bytes.Buffer
	buffer := make([]byte, 7)

	for {
		n, err := stream.Read(buffer)
		out.Write(buffer[:n])
		if errors.Is(err, io.EOF) {
			return out.String()
		}
		require.NoError(t, err)
	}
}

func TestInboundStreamPlain(t *testing.T) {
	stream := newInboundStream(bytes.NewReader([]byte("no compression here")))
	assert.Equal(t, "no compression here", readAll(t, stream))
}

func TestInboundStreamCompression(t *testing.T) {
	var wire bytes.Buffer
	wire.WriteString("before")
	wire.Write([]byte{IAC, SB, byte(TelOptMCCP2), IAC, SE})
	wire.Write(compressed(t, "squeezed text\r\n"))
	wire.WriteString("after")

	stream := newInboundStream(&wire)
	decoder := newTestDecoder(t, "", DeliverChunks)
	recorder := &decodeRecorder{}

	buffer := make([]byte, 1024)
	n, err := stream.Read(buffer)
	require.NoError(t, err)

	result := decoder.decode(buffer[:n], recorder.dispatch)
	assert.Equal(t, []string{"before"}, result.text)
	require.True(t, result.startCompression)

	stream.startCompression(result.compressed)
	assert.Equal(t, "squeezed text\r\nafter", readAll(t, stream))
	assert.False(t, stream.compressing)
}

func TestInboundStreamCorrupt(t *testing.T) {
	stream := newInboundStream(bytes.NewReader(nil))
	stream.startCompression([]byte{0x00, 0x01, 0x02, 0x03})

	_, err := stream.Read(make([]byte, 16))
	assert.ErrorContains(t, err, "mccp2")
}
