package guraffic

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// UserLevel is the verbosity level selected by the user; messages at or above it are shown. The default is
// slog.LevelWarn, so loaders only speak up when they skip something.
var UserLevel = new(slog.LevelVar)

var logger = newLogger()

func init() {
	UserLevel.Set(slog.LevelWarn)
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: UserLevel}))
}

// Logger returns the logger guraffic writes to.
func Logger() *slog.Logger {
	return logger
}

// SetLogger replaces the logger guraffic writes to. Passing nil restores the default stderr logger.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newLogger()
	}
	logger = l
}

// LevelFromFlags returns the slog.Level corresponding to the given command line flags:
//   - vv: slog.LevelDebug
//   - v: slog.LevelInfo
//   - q: slog.LevelError
//   - (default: slog.LevelWarn)
//
// The flags are evaluated in that order, so vv wins over q.
func LevelFromFlags(vv, v, q bool) slog.Level {
	switch {
	case vv:
		return slog.LevelDebug
	case v:
		return slog.LevelInfo
	case q:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// ParseLevel returns the slog.Level with the provided name ("debug", "info", "warn" or "error"). An empty name is
// slog.LevelWarn.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelWarn, fmt.Errorf("log level %q: %w", name, ErrMalformedFile)
}
