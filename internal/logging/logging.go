// Package logging builds the zap logger backoffice writes to. The terminal
// belongs to the UI, so records only ever go to a rotated file.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects where and how records are written.
type Options struct {
	File   string
	Level  string
	Format string
}

const (
	maxSizeMB  = 16
	maxBackups = 5
	maxAgeDays = 14
)

// New returns a logger writing to opts.File through lumberjack, plus a
// closer for the underlying file. An empty File yields a no-op logger.
func New(opts Options) (*zap.Logger, func() error, error) {
	noop := func() error { return nil }
	if strings.TrimSpace(opts.File) == "" {
		return zap.NewNop(), noop, nil
	}

	level, err := zapcore.ParseLevel(strings.TrimSpace(opts.Level))
	if err != nil {
		return nil, noop, fmt.Errorf("parse log level: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, noop, fmt.Errorf("create log dir: %w", err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	var encoder zapcore.Encoder
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	case "console":
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		return nil, noop, fmt.Errorf("unknown log format %q", opts.Format)
	}

	sink := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(sink), level)
	logger := zap.New(core, zap.AddCaller())
	closer := func() error {
		_ = logger.Sync()
		return sink.Close()
	}
	return logger, closer, nil
}
