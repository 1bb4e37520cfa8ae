package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logDir     = "logs"
	maxLogSize = 10 * 1024 * 1024 // rotate beyond 10MB
)

// SetupLogging returns a logger writing JSON lines to logs/<name>.log
// when debug is set, and a no-op logger otherwise. Terminal programs own
// stdout and stderr, so nothing is ever logged there. The returned file
// is nil when logging is disabled
func SetupLogging(name string, debug bool) (*zap.Logger, *os.File, error) {
	if !debug {
		return zap.NewNop(), nil, nil
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return zap.NewNop(), nil, fmt.Errorf("failed to create %s: %w", logDir, err)
	}

	path := filepath.Join(logDir, name+".log")
	if err := rotateLog(path); err != nil {
		return zap.NewNop(), nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return zap.NewNop(), nil, fmt.Errorf("failed to open log file: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), zap.DebugLevel)
	log := zap.New(core, zap.AddCaller()).Named(name)
	log.Info("logging started", zap.Int("pid", os.Getpid()))
	return log, f, nil
}

// rotateLog renames path to <name>-<timestamp>.log once it exceeds maxLogSize
func rotateLog(path string) error {
	info, err := os.Stat(path)
	if err != nil || info.Size() <= maxLogSize {
		return nil
	}
	base := strings.TrimSuffix(path, ".log")
	rotated := fmt.Sprintf("%s-%s.log", base, time.Now().Format("20060102-150405"))
	if err := os.Rename(path, rotated); err != nil {
		return fmt.Errorf("failed to rotate log: %w", err)
	}
	return nil
}
