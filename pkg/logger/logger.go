package logger

import (
	"os"

	"go.uber.org/zap"
)

var Log *zap.Logger

// New builds the process-wide logger. Production JSON encoding by default,
// human-readable development encoding when LOG_MODE=dev.
func New() *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)

	if os.Getenv("LOG_MODE") == "dev" {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}

	Log = l
	return l
}

// L returns the global logger, initializing it on first use so packages can
// log before main wires things up (tests rely on this).
func L() *zap.Logger {
	if Log == nil {
		return New()
	}
	return Log
}
