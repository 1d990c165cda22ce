// Package logger provides leveled, named loggers for the application.
// Loggers are created lazily via GetLogger and share a common output
// format so log lines from all subsystems line up.
package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
)

// --------------------------------------------------------------------------
// Log Levels
// --------------------------------------------------------------------------

type LogLevel int

const (
	CRITICAL LogLevel = iota
	ERROR
	WARNING
	INFO
	DEBUG
)

// ParseLevel converts a string level to a LogLevel.
// It returns an error for unknown levels instead of panicking so callers
// can surface the problem as a config error.
func ParseLevel(level string) (LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return DEBUG, nil
	case "info":
		return INFO, nil
	case "warning", "warn":
		return WARNING, nil
	case "error":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// --------------------------------------------------------------------------
// Logger Interface
// --------------------------------------------------------------------------

// ILogger is the logging interface used by all subsystems.
type ILogger interface {
	SetLevel(level LogLevel)
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Panicf(format string, args ...interface{})
}

// hyperLogger implements the ILogger interface with custom formatting
type hyperLogger struct {
	name   string
	mu     sync.Mutex
	level  LogLevel
	logger *log.Logger
}

func (l *hyperLogger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *hyperLogger) enabled(level LogLevel) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level >= level
}

func (l *hyperLogger) Debugf(format string, args ...interface{}) {
	if l.enabled(DEBUG) {
		l.log("DEBUG", format, args...)
	}
}

func (l *hyperLogger) Infof(format string, args ...interface{}) {
	if l.enabled(INFO) {
		l.log("INFO", format, args...)
	}
}

func (l *hyperLogger) Warningf(format string, args ...interface{}) {
	if l.enabled(WARNING) {
		l.log("WARN", format, args...)
	}
}

func (l *hyperLogger) Errorf(format string, args ...interface{}) {
	if l.enabled(ERROR) {
		l.log("ERROR", format, args...)
	}
}

func (l *hyperLogger) Panicf(format string, args ...interface{}) {
	panic(fmt.Sprintf(format, args...))
}

// log formats and writes a log message. this internal helper is used by the public methods
func (l *hyperLogger) log(levelStr string, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	l.logger.Printf("%-5s | %-15s | %s", levelStr, l.name, message)
}

// --------------------------------------------------------------------------
// Logger Registry
// --------------------------------------------------------------------------

var (
	registryMu sync.Mutex
	registry   = map[string]*hyperLogger{}
)

// GetLogger returns the named logger, creating it on first use.
// Loggers start at INFO level.
func GetLogger(pkgName string) ILogger {
	registryMu.Lock()
	defer registryMu.Unlock()

	if l, ok := registry[pkgName]; ok {
		return l
	}

	l := &hyperLogger{
		name:   pkgName,
		level:  INFO,
		logger: log.New(os.Stdout, "", log.Ldate|log.Ltime),
	}
	registry[pkgName] = l
	return l
}
