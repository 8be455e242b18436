// Package logger provides structured logging for tweetkit using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers carrying structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("stream")
//	log.Info("connected", logger.Fields(logger.FieldURL, url))
package logger
