package telnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decodeRecorder struct {
	commands []Command
}

func (r *decodeRecorder) dispatch(c Command) {
	r.commands = append(r.commands, c)
}

func newTestDecoder(t *testing.T, charsetName string, delivery Delivery) *frameDecoder {
	charset, err := NewCharset(charsetName)
	require.NoError(t, err)

	return newFrameDecoder(charset, delivery)
}

func TestDecodeSplitCommand(t *testing.T) {
	whole := newTestDecoder(t, "", DeliverChunks)
	wholeRecorder := &decodeRecorder{}
	whole.decode([]byte{IAC, DO, byte(TelOptECHO)}, wholeRecorder.dispatch)

	split := newTestDecoder(t, "", DeliverChunks)
	splitRecorder := &decodeRecorder{}

	result := split.decode([]byte{IAC, DO}, splitRecorder.dispatch)
	assert.Empty(t, result.text)
	assert.Empty(t, splitRecorder.commands)
	assert.Equal(t, []byte{IAC, DO}, split.pending())

	split.decode([]byte{byte(TelOptECHO)}, splitRecorder.dispatch)
	assert.Empty(t, split.pending())

	require.Len(t, splitRecorder.commands, 1)
	assert.Equal(t, wholeRecorder.commands, splitRecorder.commands)
	assert.Equal(t, Command{OpCode: DO, Option: TelOptECHO}, splitRecorder.commands[0])
}

func TestDecodeSplitAfterIAC(t *testing.T) {
	decoder := newTestDecoder(t, "", DeliverChunks)
	recorder := &decodeRecorder{}

	result := decoder.decode([]byte("abc\xff"), recorder.dispatch)
	assert.Equal(t, []string{"abc"}, result.text)
	assert.Equal(t, []byte{IAC}, decoder.pending())

	result = decoder.decode([]byte{WILL, byte(TelOptSUPPRESSGOAHEAD), 'd'}, recorder.dispatch)
	assert.Equal(t, []string{"d"}, result.text)
	assert.Equal(t, []Command{{OpCode: WILL, Option: TelOptSUPPRESSGOAHEAD}}, recorder.commands)
}

func TestDecodeTruncatedOnly(t *testing.T) {
	decoder := newTestDecoder(t, "", DeliverChunks)
	recorder := &decodeRecorder{}

	result := decoder.decode([]byte{IAC, WILL}, recorder.dispatch)
	assert.Empty(t, result.text)
	assert.False(t, result.completedLine)
	assert.Empty(t, recorder.commands)
	assert.Len(t, decoder.pending(), 2)
}

func TestDecodeEmptyChunk(t *testing.T) {
	decoder := newTestDecoder(t, "", DeliverChunks)
	recorder := &decodeRecorder{}

	result := decoder.decode(nil, recorder.dispatch)
	assert.Empty(t, result.text)
	assert.Empty(t, recorder.commands)
	assert.Empty(t, decoder.pending())
}

func TestDecodeSwallowsEscape(t *testing.T) {
	decoder := newTestDecoder(t, "", DeliverChunks)
	recorder := &decodeRecorder{}

	result := decoder.decode([]byte("left\x1b7right"), recorder.dispatch)
	assert.Equal(t, []string{"leftright"}, result.text)
	assert.Empty(t, recorder.commands)
}

func TestDecodeEscapeAtChunkBoundary(t *testing.T) {
	decoder := newTestDecoder(t, "", DeliverChunks)
	recorder := &decodeRecorder{}

	result := decoder.decode([]byte("left\x1b"), recorder.dispatch)
	assert.Equal(t, []string{"left"}, result.text)
	assert.Equal(t, []byte{0x1b}, decoder.pending())

	result = decoder.decode([]byte("7right"), recorder.dispatch)
	assert.Equal(t, []string{"right"}, result.text)
	assert.Empty(t, decoder.pending())
}

func TestDecodeEscapedIAC(t *testing.T) {
	decoder := newTestDecoder(t, "", DeliverChunks)
	recorder := &decodeRecorder{}

	result := decoder.decode([]byte{'a', IAC, IAC, 'b'}, recorder.dispatch)
	assert.Equal(t, []string{"a\xffb"}, result.text)
	assert.Empty(t, recorder.commands)
}

func TestDecodeTwoByteCommand(t *testing.T) {
	decoder := newTestDecoder(t, "", DeliverChunks)
	recorder := &decodeRecorder{}

	result := decoder.decode([]byte{'>', ' ', IAC, GA}, recorder.dispatch)
	assert.Equal(t, []string{"> "}, result.text)
	assert.Equal(t, []Command{{OpCode: GA}}, recorder.commands)
	assert.Empty(t, decoder.pending())
}

func TestDecodeSkipsSubnegotiation(t *testing.T) {
	decoder := newTestDecoder(t, "", DeliverChunks)
	recorder := &decodeRecorder{}

	result := decoder.decode([]byte{'a', IAC, SB, byte(TelOptTTYPE), 1, IAC, SE, 'b'}, recorder.dispatch)
	assert.Equal(t, []string{"ab"}, result.text)
	assert.Equal(t, []Command{
		{OpCode: SB, Option: TelOptTTYPE},
		{OpCode: SE},
	}, recorder.commands)
}

func TestDecodeSubnegotiationAcrossChunks(t *testing.T) {
	decoder := newTestDecoder(t, "", DeliverChunks)
	recorder := &decodeRecorder{}

	result := decoder.decode([]byte{IAC, SB, byte(TelOptGMCP), 'x', 'y'}, recorder.dispatch)
	assert.Empty(t, result.text)
	assert.Empty(t, decoder.pending())

	result = decoder.decode([]byte{'z', IAC}, recorder.dispatch)
	assert.Empty(t, result.text)
	assert.Equal(t, []byte{IAC}, decoder.pending())

	result = decoder.decode([]byte{SE, 'o', 'k'}, recorder.dispatch)
	assert.Equal(t, []string{"ok"}, result.text)
	assert.Equal(t, []Command{
		{OpCode: SB, Option: TelOptGMCP},
		{OpCode: SE},
	}, recorder.commands)
}

func TestDecodeStartsCompression(t *testing.T) {
	decoder := newTestDecoder(t, "", DeliverChunks)
	recorder := &decodeRecorder{}

	chunk := []byte{'h', 'i', IAC, SB, byte(TelOptMCCP2), IAC, SE, 0x78, 0x9c}
	result := decoder.decode(chunk, recorder.dispatch)

	assert.Equal(t, []string{"hi"}, result.text)
	assert.True(t, result.startCompression)
	assert.Equal(t, []byte{0x78, 0x9c}, result.compressed)
	assert.Empty(t, decoder.pending())
}

func TestDecodeDeliverChunks(t *testing.T) {
	decoder := newTestDecoder(t, "", DeliverChunks)
	recorder := &decodeRecorder{}

	result := decoder.decode([]byte("one\ntwo\nthr"), recorder.dispatch)
	assert.Equal(t, []string{"one\ntwo\nthr"}, result.text)
	assert.True(t, result.completedLine)
	assert.Equal(t, "two\n", decoder.LastLine())
}

func TestDecodeDeliverLines(t *testing.T) {
	decoder := newTestDecoder(t, "", DeliverLines)
	recorder := &decodeRecorder{}

	result := decoder.decode([]byte("one\ntwo\nthr"), recorder.dispatch)
	assert.Equal(t, []string{"one\n", "two\n", "thr"}, result.text)
	assert.Equal(t, "two\n", decoder.LastLine())

	result = decoder.decode([]byte("ee\n"), recorder.dispatch)
	assert.Equal(t, []string{"ee\n"}, result.text)
	assert.Equal(t, "ee\n", decoder.LastLine())
}

func TestDecodeSplitMultibyteCharacter(t *testing.T) {
	decoder := newTestDecoder(t, "UTF-8", DeliverChunks)
	recorder := &decodeRecorder{}

	result := decoder.decode([]byte{'c', 'a', 'f', 0xc3}, recorder.dispatch)
	assert.Equal(t, []string{"caf"}, result.text)

	result = decoder.decode([]byte{0xa9, '!'}, recorder.dispatch)
	assert.Equal(t, []string{"é!"}, result.text)
}

func TestDecodeReset(t *testing.T) {
	decoder := newTestDecoder(t, "", DeliverChunks)
	recorder := &decodeRecorder{}

	decoder.decode([]byte{IAC, SB, byte(TelOptGMCP), 'x', IAC}, recorder.dispatch)
	require.NotEmpty(t, decoder.pending())

	decoder.reset()
	assert.Empty(t, decoder.pending())

	result := decoder.decode([]byte("plain"), recorder.dispatch)
	assert.Equal(t, []string{"plain"}, result.text)
}
