// Package logging builds the process-wide zap logger.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a logger writing a console-encoded stream to stderr at the
// given level. When file is non-empty, a JSON-encoded core writing to that
// path is added, rotated by size so long watch runs don't fill the disk.
func New(level, file string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	consoleCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	console := zapcore.NewCore(
		zapcore.NewConsoleEncoder(consoleCfg),
		zapcore.Lock(os.Stderr),
		lvl,
	)

	if file == "" {
		return zap.New(console), nil
	}

	fileCfg := zap.NewProductionEncoderConfig()
	fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   file,
		MaxSize:    20, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
	})
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), sink, lvl)

	return zap.New(zapcore.NewTee(console, fileCore)), nil
}
