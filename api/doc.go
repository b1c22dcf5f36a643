// Package api defines the HTTP server configuration and the wire types
// shared between the storage router's HTTP handlers and clients.
package api
