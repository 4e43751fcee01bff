// Package logger provides structured logging for lumison using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//
// # Usage
//
//	log := logger.Get("updater")
//	log.Info("Update available", logger.Fields("version", v))
package logger
