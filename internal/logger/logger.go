// Package logger provides leveled logging for sercha-sync.
// Debug, Info and Section messages are printed to stderr only when verbose
// mode is enabled via the --verbose flag. Warnings and errors are always
// printed. When a log file is configured, every message is also appended to
// it (with a timestamp) regardless of verbosity.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Log file rotation defaults.
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 28
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	file    io.WriteCloser
	now     = time.Now
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the console writer.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// SetLogFile additionally writes every message to a size-rotated log file.
// An empty path closes and detaches any current log file.
func SetLogFile(path string) error {
	if path == "" {
		return setFile(nil)
	}
	return setFile(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
		MaxAge:     DefaultMaxAgeDays,
	})
}

func setFile(w io.WriteCloser) error {
	mu.Lock()
	defer mu.Unlock()
	var err error
	if file != nil {
		err = file.Close()
	}
	file = w
	return err
}

// Close flushes and detaches the log file, if any.
func Close() error {
	return setFile(nil)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	write("DEBUG", false, format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	write("INFO", false, format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	write("WARN", true, format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	write("ERROR", true, format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
	if file != nil {
		fmt.Fprintf(file, "%s === %s ===\n", now().UTC().Format(time.RFC3339), name)
	}
}

func write(level string, always bool, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	msg := fmt.Sprintf(format, args...)
	if always || verbose {
		fmt.Fprintf(output, "[%s] %s\n", level, msg)
	}
	if file != nil {
		fmt.Fprintf(file, "%s [%s] %s\n", now().UTC().Format(time.RFC3339), level, msg)
	}
}
