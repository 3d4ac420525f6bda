package logging

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogFileName is the run log written under the configured log directory.
const LogFileName = "tethys.log"

// New builds the run logger: debug level to {logPath}/tethys.log, info
// level to stderr. The returned close function flushes and closes the file.
// Components receive this logger explicitly; there is no package-level one.
func New(logPath string) (*zap.SugaredLogger, func(), error) {
	if err := os.MkdirAll(logPath, 0755); err != nil {
		return nil, nil, errors.Wrapf(err, "create log directory %s", logPath)
	}

	logFile := filepath.Join(logPath, LogFileName)
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open log file %s", logFile)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewConsoleEncoder(encCfg)

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.AddSync(f), zapcore.DebugLevel),
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), zapcore.InfoLevel),
	)

	logger := zap.New(core)
	closeFn := func() {
		logger.Sync()
		f.Close()
	}
	return logger.Sugar(), closeFn, nil
}

// NewNop returns a logger that discards everything, for tests.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
