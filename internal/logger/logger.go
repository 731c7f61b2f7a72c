// Package logger provides the leveled logger injected into the batch driver
// and the MCP server.
//
// Output goes through the standard library log package so that the flags set
// up in main (timestamps, file:line) apply everywhere.
package logger

import (
	"fmt"
	"io"
	"log"
	"strings"
)

// LogLevel - log level type
type LogLevel int

const (
	// LogDebug - DEBUG log level
	LogDebug LogLevel = iota

	// LogInfo - INFO log level
	LogInfo

	// LogWarn - WARN log level, used for skipped images
	LogWarn

	// LogError - ERROR log level (does not call os.Exit!)
	LogError
)

var logLevelPrefix = map[LogLevel]string{
	LogDebug: "DEBUG",
	LogInfo:  "INFO",
	LogWarn:  "WARN",
	LogError: "ERROR",
}

// ILogger is the logging surface used throughout the module.
type ILogger interface {
	Printf(level LogLevel, format string, a ...interface{})
	Debugf(format string, a ...interface{})
	Infof(format string, a ...interface{})
	Warnf(format string, a ...interface{})
	Errorf(format string, a ...interface{})
	SetLogLevel(level LogLevel)
	GetLogLevel() LogLevel
}

// ParseLevel maps a level name ("debug", "info", "warn", "error") to a
// LogLevel. Unknown or empty names return LogInfo.
func ParseLevel(name string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LogDebug
	case "warn", "warning":
		return LogWarn
	case "error":
		return LogError
	default:
		return LogInfo
	}
}

// StdLogger writes through a *log.Logger, dropping messages below its level.
type StdLogger struct {
	logLevel LogLevel
	out      *log.Logger
}

// New returns a StdLogger at the given level. A nil out uses the standard
// library's default logger.
func New(out *log.Logger, level LogLevel) *StdLogger {
	if out == nil {
		out = log.Default()
	}
	return &StdLogger{logLevel: level, out: out}
}

// NewWriter returns a StdLogger writing plain lines to w.
func NewWriter(w io.Writer, level LogLevel) *StdLogger {
	return New(log.New(w, "", 0), level)
}

func (l *StdLogger) Printf(level LogLevel, format string, a ...interface{}) {
	if level < l.logLevel {
		return
	}
	txt := logLevelPrefix[level] + ": " + fmt.Sprintf(format, a...)
	// calldepth 3 points the file:line flag at the caller of Infof etc.
	_ = l.out.Output(3, txt)
}
func (l *StdLogger) Debugf(format string, a ...interface{}) {
	l.Printf(LogDebug, format, a...)
}
func (l *StdLogger) Infof(format string, a ...interface{}) {
	l.Printf(LogInfo, format, a...)
}
func (l *StdLogger) Warnf(format string, a ...interface{}) {
	l.Printf(LogWarn, format, a...)
}
func (l *StdLogger) Errorf(format string, a ...interface{}) {
	l.Printf(LogError, format, a...)
}

func (l *StdLogger) SetLogLevel(level LogLevel) {
	l.logLevel = level
}
func (l *StdLogger) GetLogLevel() LogLevel {
	return l.logLevel
}

// NullLogger - For mocking out in tests
type NullLogger struct {
}

func (l *NullLogger) Printf(level LogLevel, format string, a ...interface{}) {}
func (l *NullLogger) Debugf(format string, a ...interface{})                  {}
func (l *NullLogger) Infof(format string, a ...interface{})                   {}
func (l *NullLogger) Warnf(format string, a ...interface{})                   {}
func (l *NullLogger) Errorf(format string, a ...interface{})                  {}
func (l *NullLogger) SetLogLevel(level LogLevel)                              {}
func (l *NullLogger) GetLogLevel() LogLevel                                   { return LogError }
