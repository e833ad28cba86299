// Package logging builds the zap logger shared by every component.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"db-vacancy-manager/internal/config"
)

// TimeLayout is the timestamp layout written to the log file
const TimeLayout = "02-01-2006 15:04:05"

// Component logger names
const (
	API       = "hh_api"
	Parser    = "parser"
	Store     = "db_manager"
	Collector = "collector"
	Session   = "session"
)

// New builds a console-encoded logger writing to cfg.File, truncated on every run. An empty
// File logs to stderr. The returned cleanup syncs the logger and closes the file.
func New(cfg config.LoggingConfig) (*zap.Logger, func(), error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level: %w", err)
	}

	var sink zapcore.WriteSyncer
	var file *os.File
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err = os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		sink = zapcore.AddSync(file)
	} else {
		sink = zapcore.Lock(os.Stderr)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout(TimeLayout)
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderCfg.ConsoleSeparator = " - "

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), sink, level)
	logger := zap.New(core, zap.AddCaller())

	cleanup := func() {
		_ = logger.Sync()
		if file != nil {
			_ = file.Close()
		}
	}
	return logger, cleanup, nil
}
