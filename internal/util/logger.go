package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const LOG_BUFFER_SIZE = 1000

var (
	ErrLogNotInitialized = errors.New("log object is not initialized yet")
	ErrUnknownLogLevel   = errors.New("unknown log level")
)

const (
	LOG_LEVEL_ERROR = iota + 1
	LOG_LEVEL_WARN
	LOG_LEVEL_INFO
	LOG_LEVEL_DEBUG
)

// SchedLogger queues log events on a buffered channel drained by a single
// writer goroutine. The zero value drops every event and reports
// ErrLogNotInitialized.
type SchedLogger struct {
	mu                sync.RWMutex
	logBuffer         chan leveledEntry
	handle            *os.File
	wg                *sync.WaitGroup
	loggerInitialized bool
	zapLogger         *zap.Logger
}

type leveledEntry struct {
	level  int
	logMsg string
	fields []zap.Field
}

// Init opens logFile for appending, or logs to stderr when logFile is empty.
func (m *SchedLogger) Init(logFile string, level int) error {
	var writer zapcore.WriteSyncer

	if logFile == "" {
		writer = zapcore.Lock(os.Stderr)
	} else {
		CheckAndCreateLogFolder(filepath.Dir(logFile))

		handle, err := os.OpenFile(logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("error opening log file: %w", err)
		}
		m.handle = handle
		writer = zapcore.AddSync(handle)
	}

	m.zapLogger = zap.New(zapcore.NewCore(consoleEncoder(), writer, zapLevel(level)))

	m.wg = new(sync.WaitGroup)
	m.logBuffer = make(chan leveledEntry, LOG_BUFFER_SIZE)

	m.wg.Add(1)
	go m.logWritter()

	m.mu.Lock()
	m.loggerInitialized = true
	m.mu.Unlock()
	return nil
}

// NewSyncLogger wraps an existing zap logger and writes events inline,
// without the buffered writer.
func NewSyncLogger(z *zap.Logger) *SchedLogger {
	return &SchedLogger{zapLogger: z, loggerInitialized: true}
}

func consoleEncoder() zapcore.Encoder {
	config := zap.NewProductionEncoderConfig()
	config.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(config)
}

func zapLevel(level int) zapcore.Level {
	switch level {
	case LOG_LEVEL_ERROR:
		return zapcore.ErrorLevel
	case LOG_LEVEL_WARN:
		return zapcore.WarnLevel
	case LOG_LEVEL_DEBUG:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

func ParseLogLevel(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return LOG_LEVEL_ERROR, nil
	case "warn", "warning":
		return LOG_LEVEL_WARN, nil
	case "", "info":
		return LOG_LEVEL_INFO, nil
	case "debug":
		return LOG_LEVEL_DEBUG, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownLogLevel, s)
	}
}

func (m *SchedLogger) logWritter() {
	for entry := range m.logBuffer {
		m.write(entry)
	}
	m.wg.Done()
}

func (m *SchedLogger) write(entry leveledEntry) {
	switch entry.level {
	case LOG_LEVEL_ERROR:
		m.zapLogger.Error(entry.logMsg, entry.fields...)
	case LOG_LEVEL_WARN:
		m.zapLogger.Warn(entry.logMsg, entry.fields...)
	case LOG_LEVEL_DEBUG:
		m.zapLogger.Debug(entry.logMsg, entry.fields...)
	default:
		m.zapLogger.Info(entry.logMsg, entry.fields...)
	}
}

func (m *SchedLogger) LogEvent(level int, msg string, fields ...zap.Field) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.loggerInitialized {
		return ErrLogNotInitialized
	}

	entry := leveledEntry{level: level, logMsg: msg, fields: fields}
	if m.logBuffer == nil {
		m.write(entry)
		return nil
	}
	m.logBuffer <- entry
	return nil
}

func (m *SchedLogger) Debug(msg string, fields ...zap.Field) {
	m.LogEvent(LOG_LEVEL_DEBUG, msg, fields...)
}

func (m *SchedLogger) Info(msg string, fields ...zap.Field) {
	m.LogEvent(LOG_LEVEL_INFO, msg, fields...)
}

func (m *SchedLogger) Warn(msg string, fields ...zap.Field) {
	m.LogEvent(LOG_LEVEL_WARN, msg, fields...)
}

func (m *SchedLogger) Error(msg string, fields ...zap.Field) {
	m.LogEvent(LOG_LEVEL_ERROR, msg, fields...)
}

// DeInit drains queued events and closes the log file.
func (m *SchedLogger) DeInit() {
	m.mu.Lock()
	if !m.loggerInitialized {
		m.mu.Unlock()
		return
	}
	m.loggerInitialized = false
	m.mu.Unlock()

	if m.logBuffer != nil {
		close(m.logBuffer)
		m.wg.Wait()
	}

	m.zapLogger.Sync()
	if m.handle != nil {
		m.handle.Close()
	}
}

func CheckAndCreateLogFolder(FolderNameWithPath string) {
	_, err := os.Stat(FolderNameWithPath)

	if os.IsNotExist(err) {
		err := os.MkdirAll(FolderNameWithPath, 0755)
		if err != nil {
			fmt.Println("Failed to create the log folder and Mkdir err :: ", err)
		}
	}
}
