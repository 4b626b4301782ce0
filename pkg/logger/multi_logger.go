package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogCategory represents different log categories
type LogCategory string

const (
	CategoryWorkflow LogCategory = "workflow" // Submit/retrieve/rate events (JSON)
	CategoryError    LogCategory = "error"    // Application errors (JSON)
)

// MultiLogger tees the console logger into per-category JSON files so workflow
// events can be inspected after the process exits.
type MultiLogger struct {
	console *zap.Logger
	loggers map[LogCategory]*zap.Logger
	files   []*os.File
	config  MultiLoggerConfig
	mu      sync.RWMutex
}

// MultiLoggerConfig contains configuration for multi-output logging
type MultiLoggerConfig struct {
	Level   string // debug, info, warn, error
	LogsDir string // Directory for log files
}

// NewMultiLogger creates a new multi-output logger on top of console
func NewMultiLogger(console *zap.Logger, config MultiLoggerConfig) (*MultiLogger, error) {
	if config.LogsDir == "" {
		return nil, fmt.Errorf("logs_dir must be specified")
	}
	if err := os.MkdirAll(config.LogsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	ml := &MultiLogger{
		console: OrNop(console),
		loggers: make(map[LogCategory]*zap.Logger),
		config:  config,
	}

	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	workflowCore, err := ml.createStructuredCore(CategoryWorkflow, level)
	if err != nil {
		ml.Close()
		return nil, fmt.Errorf("failed to create workflow logger: %w", err)
	}
	errorCore, err := ml.createStructuredCore(CategoryError, zapcore.ErrorLevel)
	if err != nil {
		ml.Close()
		return nil, fmt.Errorf("failed to create error logger: %w", err)
	}

	// Errors from any component land in both the workflow and error files.
	ml.loggers[CategoryWorkflow] = ml.console.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, workflowCore, errorCore)
	}))
	ml.loggers[CategoryError] = zap.New(errorCore)

	return ml, nil
}

func (ml *MultiLogger) createStructuredCore(category LogCategory, level zapcore.Level) (zapcore.Core, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.CallerKey = ""

	file, err := os.OpenFile(ml.categoryLogPath(category), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	ml.files = append(ml.files, file)

	return zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(file), level), nil
}

func (ml *MultiLogger) categoryLogPath(category LogCategory) string {
	filename := fmt.Sprintf("%s-%s.log", category, time.Now().Format("20060102"))
	return filepath.Join(ml.config.LogsDir, filename)
}

// GetLogsDir returns the logs directory path
func (ml *MultiLogger) GetLogsDir() string {
	return ml.config.LogsDir
}

// GetLogger returns the logger for a specific category
func (ml *MultiLogger) GetLogger(category LogCategory) *zap.Logger {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	if logger, ok := ml.loggers[category]; ok {
		return logger
	}
	return ml.console
}

// Workflow returns the logger handed to the download workflow
func (ml *MultiLogger) Workflow() *zap.Logger {
	return ml.GetLogger(CategoryWorkflow)
}

// LogAppError logs an application-level error
func (ml *MultiLogger) LogAppError(msg string, fields ...zap.Field) {
	ml.GetLogger(CategoryError).Error(msg, fields...)
}

// Sync flushes all loggers
func (ml *MultiLogger) Sync() error {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	var lastErr error
	for _, logger := range ml.loggers {
		if err := logger.Sync(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Close flushes the loggers and closes the category files
func (ml *MultiLogger) Close() error {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	var lastErr error
	for _, logger := range ml.loggers {
		_ = logger.Sync()
	}
	for _, f := range ml.files {
		if err := f.Close(); err != nil {
			lastErr = err
		}
	}
	ml.files = nil
	return lastErr
}
