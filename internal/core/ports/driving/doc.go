// Package driving provides interfaces for application entry points
// (primary/inbound ports) consumed by the CLI, HTTP API, TUI, and
// watcher surfaces.
package driving
