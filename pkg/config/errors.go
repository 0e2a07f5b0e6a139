package config

import "errors"

var (
	ErrParsingConfig  = errors.New("failed to parse config from environment")
	ErrLoadingEnvFile = errors.New("failed to load env file")
	ErrNilPointer     = errors.New("config target is a nil pointer")
)
