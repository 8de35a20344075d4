// Package connection is the HTTP client gatekeep-cli uses to talk to a
// running gatekeep-server.
package connection
