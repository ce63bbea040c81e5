package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/shabbat-clock/internal/infrastructure/config"
)

// ServiceName is attached to every record.
const ServiceName = "shabbatclock"

// Logger wraps slog.Logger with default service fields.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Logger struct {
	*slog.Logger
}

// New creates a Logger from the logging section of the config.
//
// Parameters:
//   - cfg: Logging configuration
//   - version: Application version for the default field
//
// Returns:
//   - *Logger: Configured logger ready for use
func New(cfg config.LoggingConfig, version string) *Logger {
	var output io.Writer = os.Stdout
	if strings.EqualFold(cfg.Output, "stderr") {
		output = os.Stderr
	}
	return NewWithWriter(cfg, version, output)
}

// NewWithWriter is New with an explicit destination. Tests pass a buffer.
func NewWithWriter(cfg config.LoggingConfig, version string, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", ServiceName),
		slog.String("version", version),
	})

	return &Logger{Logger: slog.New(handler)}
}

// parseLevel converts a level name to slog.Level. Unknown names mean info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a child Logger with additional attributes.
//
// Example:
//
//	radioLogger := logger.With("component", "radio")
//	radioLogger.Info("radio TX", "command", "shabbat")
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default creates a JSON info logger for use before configuration is loaded.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}, "dev")
}
