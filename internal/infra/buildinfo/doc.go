// Package buildinfo reports the version of the running binary.
//
// Release builds set the variables with ldflags:
//
//	go build -ldflags "-X github.com/yndnr/gatekeep/internal/infra/buildinfo.Version=v1.0.0"
//
// Development builds fall back to the VCS data embedded by the Go
// toolchain.
package buildinfo
