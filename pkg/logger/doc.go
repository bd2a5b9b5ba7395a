// Package logger builds *slog.Logger instances and provides the attribute helpers
// used across taskq.
//
// New takes functional options (format, level, output, static attributes, context
// extractors). FromConfig turns an env-loaded Config into options, so a binary can do:
//
//	var cfg logger.Config
//	config.MustLoad(&cfg)
//	log := logger.New(logger.FromConfig(cfg)...)
//	logger.SetAsDefault(log)
//
// Attribute helpers (Queue, TaskName, Attempt, Remaining, Error, ...) keep key names
// consistent. Error and TaskName return an empty Attr for zero input, which slog skips:
//
//	log.Info("task scheduled", logger.Queue(q), logger.TaskName(name), logger.Error(err))
package logger
