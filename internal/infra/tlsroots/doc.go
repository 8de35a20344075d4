// Package tlsroots loads TLS material for the HTTPS listener and the SMTP
// client.
//
// CertReloader serves the listener's key pair and reloads it when the
// files change on disk, so certificate renewal needs no restart.
// ClientConfig builds a verifying client configuration with optional extra
// root certificates.
package tlsroots
