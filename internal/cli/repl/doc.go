// Package repl implements the interactive shell of dashlink.
//
//   - repl.go: read-eval-print loop and argument splitting
//   - completer.go: command name lookup and suggestions
//   - history.go: history persisted under ~/.dashlink/history
//
// The loop knows nothing about the commands themselves; it hands each
// line's arguments to an Executor.
package repl
