package utils

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	telnet "github.com/moodclient/telnetclient"
)

func newTestLog(config DebugLogConfig) (*DebugLog, *bytes.Buffer) {
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))

	return NewDebugLog(logger, config), &out
}

func TestDebugLogSession(t *testing.T) {
	debugLog, out := newTestLog(DebugLogConfig{})

	_, err := uuid.Parse(debugLog.Session())
	require.NoError(t, err)

	hooks := debugLog.Hooks()
	hooks.OutboundText[0](nil, "look")

	assert.Contains(t, out.String(), "session="+debugLog.Session())
	assert.Contains(t, out.String(), `msg="Sent text"`)
	assert.Contains(t, out.String(), "contents=look")
}

func TestDebugLogStripsANSI(t *testing.T) {
	debugLog, out := newTestLog(DebugLogConfig{IncomingTextLevel: slog.LevelDebug})

	debugLog.Hooks().Line[0](nil, "\x1b[31mred\x1b[0m")

	assert.Contains(t, out.String(), "level=DEBUG")
	assert.Contains(t, out.String(), "contents=red")
	assert.NotContains(t, out.String(), "[31m")
}

func TestDebugLogCommandsAndClose(t *testing.T) {
	debugLog, out := newTestLog(DebugLogConfig{ClosedLevel: slog.LevelWarn})
	hooks := debugLog.Hooks()

	hooks.InboundCommand[0](nil, telnet.Command{OpCode: telnet.DO, Option: telnet.TelOptNAWS})
	hooks.OutboundCommand[0](nil, telnet.Command{OpCode: telnet.WONT, Option: telnet.TelOptNAWS})
	hooks.ConnectAttempt[0](nil, telnet.ConnectAttempt{Address: "10.0.0.1:23", Err: errors.New("refused")})
	hooks.ConnectAttempt[0](nil, telnet.ConnectAttempt{Address: "10.0.0.2:23"})
	hooks.Closed[0](nil, errors.New("read: EOF"))

	logged := out.String()
	assert.Contains(t, logged, `command="IAC DO NAWS"`)
	assert.Contains(t, logged, `command="IAC WONT NAWS"`)
	assert.Contains(t, logged, `msg="Connect attempt failed" session=`)
	assert.Contains(t, logged, "address=10.0.0.1:23 error=refused")
	assert.Contains(t, logged, "msg=Connected")
	assert.Contains(t, logged, `level=WARN msg="Connection closed"`)
	assert.Contains(t, logged, `error="read: EOF"`)
}

func TestDebugLogLevelNone(t *testing.T) {
	debugLog, out := newTestLog(DebugLogConfig{
		IncomingTextLevel: LevelNone,
		OutboundTextLevel: slog.LevelInfo,
	})
	hooks := debugLog.Hooks()

	hooks.Line[0](nil, "hidden")
	hooks.OutboundText[0](nil, "shown")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "shown")
}
