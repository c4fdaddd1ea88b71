// Package logger writes structured error records to <dir>/error.json.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrorFile is a zerolog logger over the JSON error file
type ErrorFile struct {
	zerolog.Logger
	file *os.File
}

// Open creates dir when needed and appends to dir/error.json
func Open(dir string) (*ErrorFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "error.json"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open error log: %w", err)
	}
	return &ErrorFile{Logger: New(f), file: f}, nil
}

// New returns the error logger over any writer
func New(w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	return zerolog.New(w).With().Timestamp().Str("service", "tutorhub-api").Logger()
}

func (e *ErrorFile) Close() error {
	if e == nil || e.file == nil {
		return nil
	}
	return e.file.Close()
}

// lineWriter turns each line of a *log.Logger into one error record
type lineWriter struct {
	log zerolog.Logger
}

func (w lineWriter) Write(p []byte) (int, error) {
	w.log.Error().Str("source", "errorLog").Msg(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// Tee makes errorLog write to its current output and to the error file
func Tee(errorLog *log.Logger, zl zerolog.Logger) {
	errorLog.SetOutput(io.MultiWriter(errorLog.Writer(), lineWriter{log: zl}))
}
