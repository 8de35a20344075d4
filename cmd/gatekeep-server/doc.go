// Package main provides the entry point for gatekeep-server.
//
// The server guards two surfaces with a password and an HMAC-signed
// session cookie:
//
//   - nordlys: JSON login, logout, session, content and photo endpoints
//   - vault: a server-rendered page plus a JSON password check
//
// It also forwards contact form messages by email (Resend or SMTP) and can
// archive them in Badger.
//
// Usage:
//
//	gatekeep-server [flags]
//	gatekeep-server -config /etc/gatekeep/config.yaml
//
// The server loads configuration, initializes infrastructure components,
// and serves until SIGINT or SIGTERM.
package main
