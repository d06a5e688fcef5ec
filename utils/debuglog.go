package utils

import (
	"context"
	"log/slog"

	"github.com/charmbracelet/x/ansi"
	"github.com/google/uuid"

	telnet "github.com/moodclient/telnetclient"
)

// LevelNone can be used for any DebugLogConfig level to keep that kind of event out
// of the log, provided the handler's minimum level is above it
const LevelNone slog.Level = -8

type DebugLogConfig struct {
	ClosedLevel          slog.Level
	ConnectAttemptLevel  slog.Level
	IncomingCommandLevel slog.Level
	IncomingTextLevel    slog.Level
	OutboundCommandLevel slog.Level
	OutboundTextLevel    slog.Level
}

// DebugLog writes every event a Client raises to a slog.Logger. Each DebugLog tags
// its records with a random session id so interleaved logs from several clients can
// be told apart.
type DebugLog struct {
	logger  *slog.Logger
	config  DebugLogConfig
	session string
}

// NewDebugLog builds a DebugLog and the hooks that feed it. Pass the result of Hooks
// in ClientConfig.EventHooks so no event is missed, or call Attach once the client
// exists.
func NewDebugLog(logger *slog.Logger, config DebugLogConfig) *DebugLog {
	session := uuid.NewString()

	return &DebugLog{
		logger:  logger.With(slog.String("session", session)),
		config:  config,
		session: session,
	}
}

// Session returns the id attached to every record
func (l *DebugLog) Session() string {
	return l.session
}

// Hooks returns event hooks that write to the log
func (l *DebugLog) Hooks() telnet.EventHooks {
	return telnet.EventHooks{
		Line:            []telnet.LineHandler{l.logIncomingText},
		Closed:          []telnet.ClosedHandler{l.logClosed},
		InboundCommand:  []telnet.CommandHandler{l.logIncomingCommand},
		OutboundCommand: []telnet.CommandHandler{l.logOutboundCommand},
		OutboundText:    []telnet.StringHandler{l.logOutboundText},
		ConnectAttempt:  []telnet.ConnectAttemptHandler{l.logConnectAttempt},
	}
}

// Attach registers the log's hooks on a running client
func (l *DebugLog) Attach(client *telnet.Client) {
	client.RegisterLineHook(l.logIncomingText)
	client.RegisterClosedHook(l.logClosed)
	client.RegisterInboundCommandHook(l.logIncomingCommand)
	client.RegisterOutboundCommandHook(l.logOutboundCommand)
	client.RegisterOutboundTextHook(l.logOutboundText)
	client.RegisterConnectAttemptHook(l.logConnectAttempt)
}

func (l *DebugLog) logClosed(client *telnet.Client, err error) {
	l.logger.LogAttrs(context.Background(), l.config.ClosedLevel, "Connection closed", slog.Any("error", err))
}

func (l *DebugLog) logConnectAttempt(client *telnet.Client, attempt telnet.ConnectAttempt) {
	if attempt.Err != nil {
		l.logger.LogAttrs(context.Background(), l.config.ConnectAttemptLevel, "Connect attempt failed",
			slog.String("address", attempt.Address),
			slog.Any("error", attempt.Err),
		)
		return
	}

	l.logger.LogAttrs(context.Background(), l.config.ConnectAttemptLevel, "Connected", slog.String("address", attempt.Address))
}

func (l *DebugLog) logIncomingCommand(client *telnet.Client, c telnet.Command) {
	l.logger.LogAttrs(context.Background(), l.config.IncomingCommandLevel, "Received command", slog.String("command", c.String()))
}

func (l *DebugLog) logIncomingText(client *telnet.Client, text string) {
	l.logger.LogAttrs(context.Background(), l.config.IncomingTextLevel, "Received text", slog.String("contents", ansi.Strip(text)))
}

func (l *DebugLog) logOutboundCommand(client *telnet.Client, c telnet.Command) {
	l.logger.LogAttrs(context.Background(), l.config.OutboundCommandLevel, "Sent command", slog.String("command", c.String()))
}

func (l *DebugLog) logOutboundText(client *telnet.Client, text string) {
	l.logger.LogAttrs(context.Background(), l.config.OutboundTextLevel, "Sent text", slog.String("contents", text))
}
