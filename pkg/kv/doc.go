// Package kv provides the short-lived key-value storage used by the in-app
// notification inbox.
//
// Two implementations satisfy Store: MemoryStore for single-process runs and
// tests, and RedisStore for deployments where several notifier instances share
// the same inbox. Connect and Healthcheck mirror the Redis bootstrap used by
// the HTTP server's readiness probe.
package kv
