// Package logging provides a small levelled logger shared by the loader,
// the runner and the CLI. Output is either human-readable text or one JSON
// object per line.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level is a log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the upper-case level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name (case-insensitive) to a Level.
// "warning" is accepted as an alias for "warn".
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("invalid log level %q (valid: debug, info, warn, error)", s)
}

type logger struct {
	mu     sync.Mutex
	out    io.Writer
	level  Level
	format string
}

var std = &logger{level: LevelInfo, format: "text"}

// SetOutput redirects log output. A nil writer restores stderr.
func SetOutput(w io.Writer) {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.out = w
}

// SetLevel sets the minimum level that is written.
func SetLevel(l Level) {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.level = l
}

// GetLevel returns the current minimum level.
func GetLevel() Level {
	std.mu.Lock()
	defer std.mu.Unlock()
	return std.level
}

// SetFormat selects "json" or "text" output. Anything else means text.
func SetFormat(format string) {
	std.mu.Lock()
	defer std.mu.Unlock()
	if strings.EqualFold(format, "json") {
		std.format = "json"
	} else {
		std.format = "text"
	}
}

// IsDebug reports whether debug messages are written.
func IsDebug() bool {
	return GetLevel() <= LevelDebug
}

// Debug logs at debug level.
func Debug(format string, args ...interface{}) { std.log(LevelDebug, format, args...) }

// Info logs at info level.
func Info(format string, args ...interface{}) { std.log(LevelInfo, format, args...) }

// Warn logs at warn level.
func Warn(format string, args ...interface{}) { std.log(LevelWarn, format, args...) }

// Error logs at error level.
func Error(format string, args ...interface{}) { std.log(LevelError, format, args...) }

func (lg *logger) log(level Level, format string, args ...interface{}) {
	lg.mu.Lock()
	defer lg.mu.Unlock()

	if level < lg.level {
		return
	}
	out := lg.out
	if out == nil {
		out = os.Stderr
	}

	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	if lg.format == "json" {
		entry := map[string]string{
			"ts":    time.Now().UTC().Format(time.RFC3339Nano),
			"level": strings.ToLower(level.String()),
			"msg":   msg,
		}
		b, err := json.Marshal(entry)
		if err != nil {
			return
		}
		out.Write(append(b, '\n'))
		return
	}

	fmt.Fprintf(out, "%s [%s] %s\n", time.Now().Format("2006-01-02 15:04:05"), level, msg)
}
