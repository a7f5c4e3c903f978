// Package logger configures the application's structured logging (slog with
// a JSON handler) and provides helpers for carrying request- or task-scoped
// loggers through a context.Context.
package logger
