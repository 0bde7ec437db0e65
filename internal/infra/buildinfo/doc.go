// Package buildinfo exposes build-time version information.
//
// Values are injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/dashlink/internal/infra/buildinfo.Version=v1.0.0 \
//	  -X github.com/yndnr/dashlink/internal/infra/buildinfo.Commit=abc123"
//
// When Commit is not injected it falls back to the VCS revision recorded by
// the Go toolchain, if any.
package buildinfo
