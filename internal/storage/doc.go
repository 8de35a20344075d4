// Package storage provides the Badger-backed contact message archive.
//
// Records are JSON values stored under "contact/<ulid>" keys, so key order
// is arrival order. The archive runs value-log GC in the background and can
// export its size as Prometheus gauges.
package storage
