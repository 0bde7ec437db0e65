// Package shutdown runs cleanup hooks exactly once, either when the work
// finishes or when SIGINT/SIGTERM arrives.
//
// Usage:
//
//	h := shutdown.NewHandler(5 * time.Second)
//	h.OnShutdown(store.Close)
//	err := h.Run(ctx, func(ctx context.Context) error { ... })
package shutdown
