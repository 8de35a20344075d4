package storage

import "time"

// Stats contains archive statistics.
type Stats struct {
	// TotalSize is the total disk usage in bytes.
	TotalSize uint64

	// LSMSize is the LSM tree size.
	LSMSize uint64

	// ValueLogSize is the value log size.
	ValueLogSize uint64

	// LastGCTime is the last GC run timestamp (Unix milliseconds).
	LastGCTime int64

	// GCRuns is the number of value log files rewritten by GC.
	GCRuns uint64
}

// Config configures the archive.
type Config struct {
	// Dir is the storage directory.
	Dir string

	// InMemory keeps everything in memory; Dir is ignored. Used by tests.
	InMemory bool

	// GCInterval is the interval between automatic GC runs.
	// Default: 10m
	GCInterval time.Duration

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5 (rewrite a file when half of it is stale)
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 16MB
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 64MB
	ValueLogFileSize int64

	// SyncWrites enables fsync after each write.
	// Default: true
	SyncWrites bool
}

// DefaultConfig returns the default archive configuration.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:              dir,
		GCInterval:       10 * time.Minute,
		GCThreshold:      0.5,
		CacheSize:        16 << 20, // 16MB
		ValueLogFileSize: 64 << 20, // 64MB
		SyncWrites:       true,
	}
}
