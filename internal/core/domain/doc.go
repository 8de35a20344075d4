// Package domain defines the core domain model for gatekeep.
//
// The model has no IO dependencies. It contains:
//
//   - Surface: a password-gated area with its own cookie and secret
//   - Errors: coded domain errors shared by services and handlers
package domain
