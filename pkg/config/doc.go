// Package config loads typed configuration from environment variables.
//
// It wraps github.com/joho/godotenv for optional .env files and
// github.com/caarlos0/env/v11 for struct-tag parsing:
//
//	if err := config.LoadEnv(); err != nil {
//		return err
//	}
//	var redis kv.Config
//	if err := config.Load(&redis); err != nil {
//		return err
//	}
//
// Tests pass WithEnvironment to parse from a map and leave the process
// environment untouched.
//
// Errors are ErrParsingConfig, ErrLoadingEnvFile and ErrNilPointer, joined
// with the underlying cause so errors.Is works on both.
package config
