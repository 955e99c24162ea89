// Package config loads gateway settings from file and environment.
//
// Settings come from an optional YAML file plus AIGATE_-prefixed
// environment variables, with environment winning. Values that tend
// to carry secrets (the base URL and the Redis password) support
// strict ${VAR} expansion: a referenced variable that is missing from
// the environment is a load error, not an empty string.
package config
