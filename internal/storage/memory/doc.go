// Package memory provides the in-process short-lived store.
//
// Entries live until the process exits, until Close, or until their TTL
// elapses, whichever comes first. It is the sessionStorage of a single
// dashlink process.
package memory
