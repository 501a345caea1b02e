package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	JSONFormat = "json"

	LevelDebug   = "debug"
	LevelInfo    = "info"
	LevelWarn    = "warn"
	LevelWarning = "warning"
	LevelError   = "error"
)

// ParseLevel maps a config level to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn, LevelWarning:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	}
	return zerolog.InfoLevel
}

// New creates a logger writing to w in console or JSON format
func New(level, format string, w io.Writer) zerolog.Logger {
	var logger zerolog.Logger
	if format == JSONFormat {
		logger = zerolog.New(w)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true})
	}
	return logger.Level(ParseLevel(level)).With().Timestamp().Logger()
}

// Open creates the log file and a logger writing to it. The terminal belongs
// to the UI, so nothing is logged to stdout. The returned closer closes the file.
func Open(level, format, file string) (zerolog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := New(level, format, f)
	log.Logger = logger
	return logger, f, nil
}
