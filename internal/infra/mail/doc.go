// Package mail provides the outbound email transports used by the contact
// form: the Resend HTTP API and plain SMTP.
package mail
