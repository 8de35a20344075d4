// Package metric exposes gatekeep's Prometheus metrics.
//
// A Registry owns a private prometheus.Registry carrying the Go and process
// collectors plus the gatekeep_* series for HTTP traffic, gate logins,
// session verifications and contact deliveries. Registry implements the
// observer interfaces of the service package, so it can be handed directly
// to the gate and contact services.
package metric
