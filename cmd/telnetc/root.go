package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/term"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	telnet "github.com/moodclient/telnetclient"
	"github.com/moodclient/telnetclient/utils"
	"github.com/moodclient/telnetclient/wsdial"
)

const defaultPort = "23"

var (
	cfgFile string
	logger  zerolog.Logger

	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAF00")).Bold(true)
)

var rootCmd = &cobra.Command{
	Use:   "telnetc <host> [port]",
	Short: "A minimal interactive telnet client",
	Long: `Connects to a telnet service, negotiates options on your behalf and streams the
session to this terminal. Keystrokes are sent as they are typed. Press Ctrl+C to quit.

With --websocket the host argument is a ws:// or wss:// URL and the port is ignored.`,
	Args:          cobra.RangeArgs(1, 2),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	RunE: runSession,
}

func init() {
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.telnetc.yaml)")
	rootCmd.Flags().String("charset", "", "IANA charset used to decode and encode text (default passes bytes through)")
	rootCmd.Flags().Duration("connect-timeout", 0, "timeout for each connection attempt")
	rootCmd.Flags().Int("read-buffer-size", 0, "bytes requested per read")
	rootCmd.Flags().Int("max-write-chunk", 0, "bytes handed to each write, 0 for no limit")
	rootCmd.Flags().String("delivery", "chunks", "text delivery: chunks or lines")
	rootCmd.Flags().Bool("websocket", false, "connect through a WebSocket gateway")
	rootCmd.Flags().String("debug-log", "", "write a protocol debug log to this file")
	rootCmd.Flags().String("log-level", "info", "log level for client status messages")

	_ = viper.BindPFlag("charset", rootCmd.Flags().Lookup("charset"))
	_ = viper.BindPFlag("connect_timeout", rootCmd.Flags().Lookup("connect-timeout"))
	_ = viper.BindPFlag("read_buffer_size", rootCmd.Flags().Lookup("read-buffer-size"))
	_ = viper.BindPFlag("max_write_chunk", rootCmd.Flags().Lookup("max-write-chunk"))
	_ = viper.BindPFlag("delivery", rootCmd.Flags().Lookup("delivery"))
	_ = viper.BindPFlag("websocket", rootCmd.Flags().Lookup("websocket"))
	_ = viper.BindPFlag("debug_log", rootCmd.Flags().Lookup("debug-log"))
	_ = viper.BindPFlag("log_level", rootCmd.Flags().Lookup("log-level"))
}

func initConfig() error {
	viper.SetEnvPrefix("telnetc")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".telnetc")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	level, err := zerolog.ParseLevel(viper.GetString("log_level"))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logger = logger.Level(level)

	return nil
}

func clientConfig() (telnet.ClientConfig, error) {
	config := telnet.ClientConfig{
		CharsetName:    viper.GetString("charset"),
		ConnectTimeout: viper.GetDuration("connect_timeout"),
		ReadBufferSize: viper.GetInt("read_buffer_size"),
		MaxWriteChunk:  viper.GetInt("max_write_chunk"),
	}

	switch viper.GetString("delivery") {
	case "", "chunks":
		config.Delivery = telnet.DeliverChunks
	case "lines":
		config.Delivery = telnet.DeliverLines
	default:
		return config, fmt.Errorf("unknown delivery mode %q", viper.GetString("delivery"))
	}

	if viper.GetBool("websocket") {
		config.Dialer = &wsdial.Dialer{}
	}

	return config, nil
}

func candidates(ctx context.Context, args []string) ([]string, error) {
	if viper.GetBool("websocket") {
		return []string{args[0]}, nil
	}

	port := defaultPort
	if len(args) > 1 {
		port = args[1]
	}

	if ip := net.ParseIP(args[0]); ip != nil {
		return []string{net.JoinHostPort(args[0], port)}, nil
	}

	return telnet.Resolve(ctx, args[0], port)
}

func runSession(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	config, err := clientConfig()
	if err != nil {
		return err
	}

	addresses, err := candidates(ctx, args)
	if err != nil {
		return err
	}

	logger.Info().Str("host", args[0]).Strs("candidates", addresses).Msg("connecting")

	debugLogPath := viper.GetString("debug_log")
	if debugLogPath != "" {
		file, err := os.OpenFile(debugLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open debug log: %w", err)
		}
		defer file.Close()

		debugLog := utils.NewDebugLog(slog.New(slog.NewTextHandler(file, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})), utils.DebugLogConfig{
			ClosedLevel:          slog.LevelInfo,
			ConnectAttemptLevel:  slog.LevelInfo,
			IncomingCommandLevel: slog.LevelInfo,
			IncomingTextLevel:    slog.LevelDebug,
			OutboundCommandLevel: slog.LevelInfo,
			OutboundTextLevel:    slog.LevelDebug,
		})
		config.EventHooks = debugLog.Hooks()
		logger.Debug().Str("session", debugLog.Session()).Str("path", debugLogPath).Msg("debug log enabled")
	}

	stdin := os.Stdin
	lipgloss.EnableLegacyWindowsANSI(os.Stdout)
	lipgloss.EnableLegacyWindowsANSI(stdin)

	config.EventHooks.Line = append(config.EventHooks.Line, func(c *telnet.Client, text string) {
		_, _ = os.Stdout.WriteString(text)
	})
	config.EventHooks.Closed = append(config.EventHooks.Closed, func(c *telnet.Client, err error) {
		_, _ = lipgloss.Fprintln(os.Stdout, statusStyle.Render("\r\n # disconnected"))
	})
	config.EventHooks.ConnectAttempt = append(config.EventHooks.ConnectAttempt, func(c *telnet.Client, attempt telnet.ConnectAttempt) {
		if attempt.Err != nil {
			logger.Warn().Str("address", attempt.Address).Err(attempt.Err).Msg("connect attempt failed")
			return
		}
		logger.Info().Str("address", attempt.Address).Msg("connected")
	})

	client, err := telnet.NewClient(ctx, addresses, config)
	if err != nil {
		return err
	}
	defer client.Close()

	raw := term.IsTerminal(stdin.Fd())
	if raw {
		state, err := term.MakeRaw(stdin.Fd())
		if err != nil {
			return fmt.Errorf("failed to set raw mode: %w", err)
		}
		defer func() {
			_ = term.Restore(stdin.Fd(), state)
		}()
	}

	feed := utils.NewKeyboardFeed(client, stdin, utils.KeyboardFeedConfig{
		ExitByte:    utils.CtrlC,
		TranslateCR: raw,
	})

	feedDone := make(chan error, 1)
	go func() {
		feedDone <- feed.FeedLoop()
	}()

	select {
	case err := <-feedDone:
		client.Close()
		if err != nil {
			return fmt.Errorf("keyboard input: %w", err)
		}
		return nil
	case <-client.Done():
		err := client.WaitForExit()
		if errors.Is(err, telnet.ErrCandidatesExhausted) {
			return err
		}
		if err != nil {
			logger.Debug().Err(err).Msg("connection ended")
		}
		return nil
	}
}
