// Package config loads tunable service defaults from FS_-prefixed
// environment variables, falling back to built-in values.
package config
