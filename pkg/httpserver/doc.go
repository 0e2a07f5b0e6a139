// Package httpserver runs the notifier's HTTP API with configurable timeouts,
// graceful shutdown and a JSON readiness probe.
//
// Run listens on the configured address and blocks until the context is
// cancelled or Shutdown is called; the caller owns signal handling
// (signal.NotifyContext in cmd/notifier). Errors are wrapped with ErrStart
// and ErrShutdown so they can be inspected with errors.Is.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	err := srv.Run(ctx, router)
//
// HealthHandler reports each named Check as "ok" or its error message and
// answers 503 when any of them fails.
package httpserver
