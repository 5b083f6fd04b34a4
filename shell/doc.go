// Package shell provides interactive PTY-backed shell sessions confined to a
// sandbox root. Sessions are identified by opaque IDs, buffer their output in
// a fixed-size ring, and are managed through a concurrency-safe Manager. The
// Provider wraps the Manager as a tool provider.
package shell
