// Package logger provides structured logging for dashlink.
//
// It wraps log/slog behind a small Logger interface:
//
//   - logger.go: construction, dynamic level, package-level default
//   - context.go: logger and request ID propagation through context
//   - redact.go: masking of bearer tokens, JWTs and credential fields
//
// The CLI logs text at warn level to stderr unless configured otherwise,
// so normal command output on stdout stays clean.
package logger
