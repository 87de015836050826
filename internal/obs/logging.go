// Package obs contains observability utilities such as logging.
package obs

import (
	"log/slog"
	"os"
	"strings"
)

// Logger is the global structured logger used by the service.
//
// Logger is exported to allow other packages to use it for logging.
var Logger *slog.Logger

func init() {
	// Safe default so packages can log before InitLogger runs (tests).
	Logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

// InitLogger initializes the global Logger with a JSON handler. The level is
// taken from LOG_LEVEL (debug|info|warn|error), defaulting to info.
func InitLogger() {
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	Logger = slog.New(h)
}

// For returns a logger scoped to one marketplace and tenant, so every event
// of a cycle carries both keys.
func For(marketplace, userID string) *slog.Logger {
	return Logger.With("marketplace", marketplace, "user_id", userID)
}
