// Package storage provides the string key-value stores dashlink keeps its
// session state in.
//
// Two roles exist, mirroring a browser page:
//
//   - Durable storage (localStorage): the session token and user record.
//     Backed by Badger on disk, optionally sealed with XChaCha20-Poly1305.
//   - Short-lived storage (sessionStorage): the return path. Backed by the
//     in-memory TTL store or by Redis when several shells share one session.
//
// Every backend implements KV.
package storage
