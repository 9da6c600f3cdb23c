package stream

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the stream package's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the stream package's logger.
// This must be called before any reader or writer is constructed;
// WithLogger overrides it for a single instance.
func SetLogger(l *zap.Logger) {
	logger = l
}
