// Package logging provides the debug log channel. It is a no-op unless
// MDAPPLY_DEBUG=1, in which case a zap logger writes to ~/.mdapply/logs/.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	defaultLogger *zap.Logger
	once          sync.Once
)

// Get returns the process-wide logger.
func Get() *zap.Logger {
	once.Do(func() {
		defaultLogger = build()
	})
	return defaultLogger
}

func build() *zap.Logger {
	if os.Getenv("MDAPPLY_DEBUG") != "1" {
		return zap.NewNop()
	}

	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "mdapply log: failed to get home dir: %v\n", err)
		return zap.NewNop()
	}
	logsDir := filepath.Join(home, ".mdapply", "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "mdapply log: failed to create logs dir %s: %v\n", logsDir, err)
		return zap.NewNop()
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logPath := filepath.Join(logsDir, fmt.Sprintf("mdapply-%s.log", timestamp))

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	cfg.OutputPaths = []string{logPath}
	cfg.ErrorOutputPaths = []string{logPath}

	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "mdapply log: failed to open log file %s: %v\n", logPath, err)
		return zap.NewNop()
	}
	return logger
}
