// Package domain defines the core domain values for dashlink.
//
// It has no IO dependencies:
//
//   - errors.go: DomainError, ErrorKind and the response error taxonomy
//   - location.go: application paths, login/root detection
//
// Classified response errors carry a fixed user-facing message; server
// supplied text goes into Details.
package domain
