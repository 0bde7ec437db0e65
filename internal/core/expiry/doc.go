// Package expiry implements the session-expiry coordinator.
//
// A Coordinator is a two-state machine (Idle, HandlingExpiry) shared by
// every request issued through one client. The first 401 observed while
// Idle starts an episode:
//
//  1. the session token and user keys are deleted from durable storage
//  2. the "unauthorized" event is published
//  3. a warning toast is shown
//  4. a redirect to the login page is scheduled after RedirectDelay; when
//     it fires it records the return path in short-lived storage (unless
//     the current location is the login page or the application root) and
//     navigates to the login page
//
// Every later 401 in the same episode is a no-op for the coordinator. Only
// Reset, called after a successful login, returns the machine to Idle.
package expiry
