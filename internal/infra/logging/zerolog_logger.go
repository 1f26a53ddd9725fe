package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type ZerologLogger struct {
	log zerolog.Logger
}

// New builds a logger writing JSON lines to out, or human readable lines
// when format is "console".
func New(out io.Writer, level, format string) *ZerologLogger {
	if out == nil {
		out = os.Stdout
	}
	if strings.EqualFold(format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return &ZerologLogger{
		log: zerolog.New(out).Level(lvl).With().Timestamp().Str("service", "pixgate").Logger(),
	}
}

func (l *ZerologLogger) Zerolog() zerolog.Logger {
	return l.log
}

func (l *ZerologLogger) Info(msg string, fields map[string]any) {
	l.log.Info().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Warn(msg string, fields map[string]any) {
	l.log.Warn().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Error(msg string, fields map[string]any) {
	l.log.Error().Fields(fields).Msg(msg)
}
