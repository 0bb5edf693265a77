// Package logging configures the process-wide zerolog logger: a
// human-readable console writer plus an append-only text file under the
// data directory whose lines read "<time> [LEVEL] message", followed by any
// structured fields as key=value pairs.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// BackendLogPath returns the path backend.log is written to under dataDir.
func BackendLogPath(dataDir string) string {
	return filepath.Join(dataDir, "logs", "backend.log")
}

// Setup points the global zerolog logger at a console writer and an
// append-only file writer, creating the log directory if needed. It returns
// the open file handle so the caller can close it on shutdown.
func Setup(dataDir string, debug bool) (*os.File, error) {
	logDir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(BackendLogPath(dataDir), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	fileWriter := zerolog.ConsoleWriter{
		Out:        file,
		NoColor:    true,
		TimeFormat: time.RFC3339,
		FormatLevel: func(i interface{}) string {
			return "[" + strings.ToUpper(fmt.Sprint(i)) + "]"
		},
	}
	multi := zerolog.MultiLevelWriter(console, fileWriter)

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	log.Logger = zerolog.New(multi).Level(level).With().Timestamp().Logger()
	return file, nil
}
