// Package service provides the gatekeep domain services.
//
// This package contains:
//
//   - GateService: password login, signed session cookies and verification
//     for one protected surface
//   - AssetService: sanitized, extension-ordered lookup of protected images
//   - ContactService: contact form validation, rendering and delivery
//
// Services keep no per-request state. The only shared mutable state is the
// per-IP login limiter registry, which is safe for concurrent use.
package service
