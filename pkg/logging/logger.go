// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package logging provides the leveled diagnostic logger used by the
// controller firmware. Output goes to a single writer, normally the serial
// debug port.
package logging

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
)

// Level is a logging verbosity level
type Level int

const (
	LevelSilent Level = iota
	LevelError
	LevelInfo
	LevelVerbose
	LevelDebug
)

// String returns the level name
func (l Level) String() string {
	switch l {
	case LevelSilent:
		return "silent"
	case LevelError:
		return "error"
	case LevelInfo:
		return "info"
	case LevelVerbose:
		return "verbose"
	case LevelDebug:
		return "debug"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel converts a level name to a Level
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "silent", "off":
		return LevelSilent, nil
	case "error":
		return LevelError, nil
	case "", "info":
		return LevelInfo, nil
	case "verbose":
		return LevelVerbose, nil
	case "debug":
		return LevelDebug, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// sink is shared between a logger and the loggers derived from it
type sink struct {
	mu    sync.Mutex
	level Level
	out   *log.Logger
}

// Logger writes leveled, optionally prefixed lines
type Logger struct {
	sink   *sink
	prefix string
}

// New creates a logger writing to w with standard timestamps
func New(w io.Writer, level Level) *Logger {
	return &Logger{
		sink: &sink{
			level: level,
			out:   log.New(w, "", log.LstdFlags|log.Lmicroseconds),
		},
	}
}

// Discard returns a logger that drops everything
func Discard() *Logger {
	return New(io.Discard, LevelSilent)
}

// Named returns a logger sharing this logger's output and level whose lines
// are prefixed with name.
func (l *Logger) Named(name string) *Logger {
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "/" + name
	}
	return &Logger{sink: l.sink, prefix: prefix}
}

// SetLevel sets the logging level for this logger and all derived loggers
func (l *Logger) SetLevel(level Level) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = level
}

// Level returns the current logging level
func (l *Logger) Level() Level {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return l.sink.level
}

// Enabled reports whether messages at level would be written
func (l *Logger) Enabled(level Level) bool {
	return level != LevelSilent && l.Level() >= level
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	l.write(LevelError, "ERROR", format, v...)
}

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) {
	l.write(LevelInfo, "INFO", format, v...)
}

// Verbose logs a verbose message
func (l *Logger) Verbose(format string, v ...interface{}) {
	l.write(LevelVerbose, "VERBOSE", format, v...)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	l.write(LevelDebug, "DEBUG", format, v...)
}

// Hex logs data as space separated hex bytes at debug level
func (l *Logger) Hex(label string, data []byte) {
	if !l.Enabled(LevelDebug) {
		return
	}
	var sb strings.Builder
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02x", b)
	}
	l.Debug("%s: %s", label, sb.String())
}

func (l *Logger) write(level Level, tag, format string, v ...interface{}) {
	if !l.Enabled(level) {
		return
	}
	msg := fmt.Sprintf(format, v...)
	if l.prefix != "" {
		msg = "[" + l.prefix + "] " + msg
	}

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.out.Println(tag + ": " + msg)
}
