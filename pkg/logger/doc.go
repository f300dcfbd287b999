// Package logger provides structured logging for the downloader.
//
// It wraps zerolog behind a small Logger interface with support for log
// levels, structured fields, colored console output, and an optional log
// file that receives the same stream. A global instance is installed with
// Initialize and reachable through GetLogger or the package-level helpers.
//
//	cfg := &config.LoggingConfig{Level: "info", File: "bdfr.log"}
//	if err := logger.Initialize(cfg); err != nil { ... }
//
//	logger.WithField("subreddit", "golang").Info("collecting posts")
//	logger.WithError(err).Error("resource download failed")
//
// Tests can swap in NewNopLogger (discard everything) or NewRecorder
// (capture entries for assertions).
package logger
