package kv

import "errors"

var (
	ErrNotFound                     = errors.New("kv: key not found")
	ErrEmptyKey                     = errors.New("kv: empty key")
	ErrFailedToParseRedisConnString = errors.New("kv: failed to parse redis connection string")
	ErrRedisNotReady                = errors.New("kv: redis did not become ready within the given time period")
	ErrHealthcheckFailed            = errors.New("kv: redis healthcheck failed")
)
