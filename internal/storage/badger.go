package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/gatekeep/internal/core/domain"
)

// Common errors
var (
	ErrNotFound = errors.New("record not found")
	ErrClosed   = errors.New("archive closed")
)

// contactPrefix namespaces contact records.
const contactPrefix = "contact/"

// DefaultListLimit is used when List is called with a non-positive limit.
const DefaultListLimit = 50

// Archive stores contact messages in Badger.
type Archive struct {
	db     *badger.DB
	cfg    Config
	logger *slog.Logger
	closed atomic.Bool

	lastGCTime atomic.Int64 // Unix milliseconds
	gcRuns     atomic.Uint64

	// Prometheus metrics
	metricsLSMSize      prometheus.Gauge
	metricsValueLogSize prometheus.Gauge
	metricsRecords      prometheus.Gauge
	metricsLastGCTime   prometheus.Gauge

	// Shutdown
	stopCh chan struct{}
	doneCh chan struct{}
}

// Open opens or creates an archive.
func Open(cfg Config, logger *slog.Logger) (*Archive, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultConfig(cfg.Dir)
	if cfg.GCInterval <= 0 {
		cfg.GCInterval = defaults.GCInterval
	}
	if cfg.GCThreshold <= 0 || cfg.GCThreshold >= 1 {
		cfg.GCThreshold = defaults.GCThreshold
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: logger}
	if cfg.CacheSize > 0 {
		opts.BlockCacheSize = cfg.CacheSize
	}
	if cfg.ValueLogFileSize > 0 && !cfg.InMemory {
		opts.ValueLogFileSize = cfg.ValueLogFileSize
	}
	opts.SyncWrites = cfg.SyncWrites && !cfg.InMemory

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	a := &Archive{
		db:     db,
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	go a.gcLoop()

	logger.Info("contact archive opened",
		"dir", cfg.Dir,
		"in_memory", cfg.InMemory,
		"gc_interval", cfg.GCInterval)

	return a, nil
}

func recordKey(id string) []byte {
	return []byte(contactPrefix + id)
}

// Put stores rec, replacing any record with the same ID.
func (a *Archive) Put(ctx context.Context, rec *domain.ContactRecord) error {
	if a.closed.Load() {
		return ErrClosed
	}
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("badger: record id is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	return a.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(rec.ID), value)
	})
}

// Get retrieves a record by ID.
func (a *Archive) Get(ctx context.Context, id string) (*domain.ContactRecord, error) {
	if a.closed.Load() {
		return nil, ErrClosed
	}

	var rec domain.ContactRecord
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

// List returns up to limit records, newest first.
func (a *Archive) List(ctx context.Context, limit int) ([]*domain.ContactRecord, error) {
	if a.closed.Load() {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	records := make([]*domain.ContactRecord, 0, limit)
	err := a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(contactPrefix)
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// In reverse mode Seek positions at the largest key <= the seek key.
		seek := append([]byte(contactPrefix), 0xFF)
		for it.Seek(seek); it.Valid() && len(records) < limit; it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var rec domain.ContactRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			records = append(records, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// Count returns the number of stored records.
func (a *Archive) Count(ctx context.Context) (int, error) {
	if a.closed.Load() {
		return 0, ErrClosed
	}

	n := 0
	err := a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(contactPrefix)
		opts.PrefetchValues = false // Only need keys
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Ping reports whether the archive can take writes.
func (a *Archive) Ping(ctx context.Context) error {
	if a.closed.Load() {
		return ErrClosed
	}
	return ctx.Err()
}

// GC runs value log garbage collection until nothing more can be
// rewritten. It returns the number of rewritten files.
func (a *Archive) GC(ctx context.Context) (int, error) {
	if a.cfg.InMemory {
		return 0, nil
	}
	startTime := time.Now()

	runs := 0
	for ctx.Err() == nil {
		err := a.db.RunValueLogGC(a.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) {
				break
			}
			return runs, fmt.Errorf("gc: %w", err)
		}
		runs++
	}

	a.lastGCTime.Store(time.Now().UnixMilli())
	a.gcRuns.Add(uint64(runs))

	a.logger.Debug("archive gc completed",
		"rewrites", runs,
		"elapsed", time.Since(startTime))

	return runs, nil
}

// Stats returns storage statistics.
func (a *Archive) Stats() Stats {
	lsm, vlog := a.db.Size()

	return Stats{
		TotalSize:    uint64(lsm + vlog),
		LSMSize:      uint64(lsm),
		ValueLogSize: uint64(vlog),
		LastGCTime:   a.lastGCTime.Load(),
		GCRuns:       a.gcRuns.Load(),
	}
}

// Close stops background work and closes the database.
func (a *Archive) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return nil
	}

	close(a.stopCh)
	<-a.doneCh

	if err := a.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	a.logger.Info("contact archive closed")
	return nil
}

// RegisterMetrics registers archive gauges with registry and keeps them
// updated until Close.
func (a *Archive) RegisterMetrics(registry prometheus.Registerer) *Archive {
	a.metricsLSMSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gatekeep",
		Subsystem: "archive",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes",
	})

	a.metricsValueLogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gatekeep",
		Subsystem: "archive",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes",
	})

	a.metricsRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gatekeep",
		Subsystem: "archive",
		Name:      "records",
		Help:      "Number of archived contact messages",
	})

	a.metricsLastGCTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gatekeep",
		Subsystem: "archive",
		Name:      "last_gc_timestamp_seconds",
		Help:      "Unix timestamp of the last value log GC run",
	})

	registry.MustRegister(
		a.metricsLSMSize,
		a.metricsValueLogSize,
		a.metricsRecords,
		a.metricsLastGCTime,
	)

	a.updateMetrics()
	go a.metricsUpdateLoop()

	return a
}

func (a *Archive) updateMetrics() {
	stats := a.Stats()
	a.metricsLSMSize.Set(float64(stats.LSMSize))
	a.metricsValueLogSize.Set(float64(stats.ValueLogSize))
	if stats.LastGCTime > 0 {
		a.metricsLastGCTime.Set(float64(stats.LastGCTime) / 1000.0) // ms to seconds
	}

	if n, err := a.Count(context.Background()); err == nil {
		a.metricsRecords.Set(float64(n))
	}
}

func (a *Archive) metricsUpdateLoop() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.updateMetrics()
		case <-a.stopCh:
			return
		}
	}
}

// gcLoop runs periodic garbage collection.
func (a *Archive) gcLoop() {
	defer close(a.doneCh)

	ticker := time.NewTicker(a.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if _, err := a.GC(ctx); err != nil {
				a.logger.Error("auto gc failed", "error", err)
			}
			cancel()

		case <-a.stopCh:
			return
		}
	}
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
