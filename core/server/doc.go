// Package server holds the HTTP server configuration.
//
// The main entry point (cmd/start.go) handles the server startup; this package
// only defines the configuration structure and helpers derived from it, such as
// the public webhook URL Square signs its notifications against.
package server
