package shadex

import (
	"os"
	"sync"

	"github.com/hashicorp/go-hclog"
)

var (
	defaultLoggerOnce sync.Once
	defaultLogger     hclog.Logger
)

// L returns the package default logger, created lazily on first use.
// It follows the hclog.L() convention used throughout the argmapper
// package this stack is grounded on: one process-wide logger unless a
// caller threads its own through WithLogger.
func L() hclog.Logger {
	defaultLoggerOnce.Do(func() {
		defaultLogger = hclog.New(&hclog.LoggerOptions{
			Name:   "shadex",
			Level:  hclog.Warn,
			Output: os.Stderr,
		})
	})
	return defaultLogger
}

// SetLogger overrides the package default logger. Intended for tests and
// for callers (such as cmd/shadexc) that want trace-level diagnostics.
func SetLogger(l hclog.Logger) {
	defaultLoggerOnce.Do(func() {})
	defaultLogger = l
}
