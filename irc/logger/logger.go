// Copyright (c) 2017 Daniel Oaks <daniel@danieloaks.net>
// Copyright (c) 2026 np1th-irc contributors
// released under the MIT license

package logger

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Level represents the level to log messages at.
type Level int

const (
	// LogDebug represents debug messages.
	LogDebug Level = iota
	// LogInfo represents informational messages.
	LogInfo
	// LogWarning represents warnings.
	LogWarning
	// LogError represents errors.
	LogError
)

var (
	// LogLevelNames takes a config name and gives the real log level.
	LogLevelNames = map[string]Level{
		"debug":    LogDebug,
		"info":     LogInfo,
		"warn":     LogWarning,
		"warning":  LogWarning,
		"warnings": LogWarning,
		"error":    LogError,
		"errors":   LogError,
	}
	// LogLevelDisplayNames gives the display name to use for our log levels.
	LogLevelDisplayNames = map[Level]string{
		LogDebug:   "debug",
		LogInfo:    "info",
		LogWarning: "warn",
		LogError:   "error",
	}

	// server-side names for the raw I/O types, accepted in configs and
	// canonicalized when loading
	typeAliases = map[string]string{
		"userinput":  "input",
		"useroutput": "output",
	}
)

// the longest log category in use is "registration"; longer ones still
// work but break the column alignment
const typeColumnWidth = 12

func resolveTypeAlias(typeName string) string {
	if canonicalized, ok := typeAliases[typeName]; ok {
		return canonicalized
	}
	return typeName
}

// LoggingConfig represents the configuration of a single logger.
type LoggingConfig struct {
	Method        string
	MethodStdout  bool
	MethodStderr  bool
	MethodFile    bool
	Filename      string
	TypeString    string   `yaml:"type"`
	Types         []string `yaml:"real-types"`
	ExcludedTypes []string `yaml:"real-excluded-types"`
	LevelString   string   `yaml:"level"`
	Level         Level    `yaml:"level-real"`
	// Writer, if set, receives every line this logger emits in addition to
	// the configured methods.
	Writer io.Writer `yaml:"-"`
}

// Manager is the main interface used to log debug/info/error messages.
// A nil *Manager discards everything.
type Manager struct {
	configMutex  sync.RWMutex
	loggers      []*singleLogger
	writeLock    sync.Mutex
	loggingRawIO atomic.Bool
}

// singleLogger is one configured destination set with its filters.
type singleLogger struct {
	level     Level
	types     map[string]bool
	excluded  map[string]bool
	writers   []io.Writer
	file      *os.File
	fileWrite *bufio.Writer
}

// NewManager returns a new log manager.
func NewManager(config []LoggingConfig) (*Manager, error) {
	var logger Manager
	if err := logger.ApplyConfig(config); err != nil {
		return nil, err
	}
	return &logger, nil
}

func typeSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[resolveTypeAlias(name)] = true
	}
	return set
}

func newSingleLogger(config LoggingConfig) (*singleLogger, error) {
	sLogger := &singleLogger{
		level:    config.Level,
		types:    typeSet(config.Types),
		excluded: typeSet(config.ExcludedTypes),
	}
	if config.MethodStdout {
		sLogger.writers = append(sLogger.writers, os.Stdout)
	}
	if config.MethodStderr {
		sLogger.writers = append(sLogger.writers, os.Stderr)
	}
	if config.Writer != nil {
		sLogger.writers = append(sLogger.writers, config.Writer)
	}
	if config.MethodFile {
		file, err := os.OpenFile(config.Filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0666)
		if err != nil {
			return sLogger, fmt.Errorf("Could not open log file %s [%s]", config.Filename, err.Error())
		}
		sLogger.file = file
		sLogger.fileWrite = bufio.NewWriter(file)
		sLogger.writers = append(sLogger.writers, sLogger.fileWrite)
	}
	return sLogger, nil
}

// ApplyConfig replaces the loggers of this manager. A logger whose file
// cannot be opened keeps its other methods; the last such error is
// returned.
func (logger *Manager) ApplyConfig(config []LoggingConfig) error {
	logger.configMutex.Lock()
	defer logger.configMutex.Unlock()

	for _, sLogger := range logger.loggers {
		sLogger.close()
	}
	logger.loggers = nil
	logger.loggingRawIO.Store(false)

	var lastErr error
	for _, logConfig := range config {
		sLogger, err := newSingleLogger(logConfig)
		if err != nil {
			lastErr = err
		}
		// raw I/O is only logged at level debug
		if sLogger.level == LogDebug && (sLogger.captures("input") || sLogger.captures("output")) {
			logger.loggingRawIO.Store(true)
		}
		logger.loggers = append(logger.loggers, sLogger)
	}
	return lastErr
}

// Close flushes and closes any log files.
func (logger *Manager) Close() error {
	if logger == nil {
		return nil
	}
	return logger.ApplyConfig(nil)
}

// IsLoggingRawIO returns true if raw input and output lines are being logged.
func (logger *Manager) IsLoggingRawIO() bool {
	return logger != nil && logger.loggingRawIO.Load()
}

// Log logs the given message with the given details.
func (logger *Manager) Log(level Level, logType string, messageParts ...string) {
	if logger == nil {
		return
	}

	logger.configMutex.RLock()
	defer logger.configMutex.RUnlock()

	var line []byte
	for _, sLogger := range logger.loggers {
		if len(sLogger.writers) == 0 || level < sLogger.level || !sLogger.captures(logType) {
			continue
		}
		if line == nil {
			line = formatLine(time.Now(), level, logType, messageParts)
		}
		logger.writeLock.Lock()
		sLogger.write(line)
		logger.writeLock.Unlock()
	}
}

// Debug logs the given message as a debug message.
func (logger *Manager) Debug(logType string, messageParts ...string) {
	logger.Log(LogDebug, logType, messageParts...)
}

// Info logs the given message as an info message.
func (logger *Manager) Info(logType string, messageParts ...string) {
	logger.Log(LogInfo, logType, messageParts...)
}

// Warning logs the given message as a warning message.
func (logger *Manager) Warning(logType string, messageParts ...string) {
	logger.Log(LogWarning, logType, messageParts...)
}

// Error logs the given message as an error message.
func (logger *Manager) Error(logType string, messageParts ...string) {
	logger.Log(LogError, logType, messageParts...)
}

// exclusions win over inclusions
func (sLogger *singleLogger) captures(logType string) bool {
	if sLogger.excluded["*"] || sLogger.excluded[logType] {
		return false
	}
	return sLogger.types["*"] || sLogger.types[logType]
}

func (sLogger *singleLogger) write(line []byte) {
	for _, w := range sLogger.writers {
		w.Write(line)
	}
	if sLogger.fileWrite != nil {
		sLogger.fileWrite.Flush()
	}
}

func (sLogger *singleLogger) close() error {
	if sLogger.file == nil {
		return nil
	}
	flushErr := sLogger.fileWrite.Flush()
	closeErr := sLogger.file.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// formatLine renders "<time> : <level> : <type> : <part> : <part>\n".
func formatLine(now time.Time, level Level, logType string, messageParts []string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s : %-5s : %-*s : ", now.UTC().Format("2006-01-02T15:04:05.000Z"), LogLevelDisplayNames[level], typeColumnWidth, logType)
	buf.WriteString(strings.Join(messageParts, " : "))
	buf.WriteByte('\n')
	return buf.Bytes()
}
