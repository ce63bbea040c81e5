// Package logging provides structured logging on top of log/slog.
//
// Every record carries service and version fields. Components take a narrow
// Logger interface (Debug/Info/Warn/Error) and receive a child logger tagged
// with their component name:
//
//	logger := logging.New(cfg.Logging, version)
//	store.SetLogger(logger.With("component", "schedule"))
//
// Configuration:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
package logging
