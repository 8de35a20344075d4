package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/gatekeep/internal/core/domain"
)

func openTestArchive(t *testing.T, cfg Config) *Archive {
	t.Helper()

	cfg.GCInterval = time.Hour // Disable auto GC for tests
	a, err := Open(cfg, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func newRecord(t *testing.T, at time.Time, name string) *domain.ContactRecord {
	t.Helper()
	return &domain.ContactRecord{
		ID: ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String(),
		Message: domain.ContactMessage{
			Name:    name,
			Email:   "ada@example.com",
			Message: "Hello there, nice site!",
		},
		ReceivedAt: at.UTC(),
		Delivery:   domain.DeliverySent,
	}
}

func TestArchive_PutGet(t *testing.T) {
	a := openTestArchive(t, DefaultConfig(t.TempDir()))
	ctx := context.Background()

	rec := newRecord(t, time.Unix(1_700_000_000, 0), "Ada")
	if err := a.Put(ctx, rec); err != nil {
		t.Fatal(err)
	}

	got, err := a.Get(ctx, rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != rec.ID || got.Message != rec.Message || !got.ReceivedAt.Equal(rec.ReceivedAt) {
		t.Errorf("Get() = %+v, want %+v", got, rec)
	}

	if _, err := a.Get(ctx, "01ARZ3NDEKTSV4RRFFQ69G5FAV"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := a.Put(ctx, &domain.ContactRecord{}); err == nil {
		t.Error("Put() without id should fail")
	}
}

func TestArchive_ListNewestFirst(t *testing.T) {
	a := openTestArchive(t, Config{InMemory: true})
	ctx := context.Background()

	base := time.Unix(1_700_000_000, 0)
	var ids []string
	for i := 0; i < 5; i++ {
		rec := newRecord(t, base.Add(time.Duration(i)*time.Minute), fmt.Sprintf("sender-%d", i))
		ids = append(ids, rec.ID)
		if err := a.Put(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{"limited", 2, []string{ids[4], ids[3]}},
		{"all", 10, []string{ids[4], ids[3], ids[2], ids[1], ids[0]}},
		{"default", 0, []string{ids[4], ids[3], ids[2], ids[1], ids[0]}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.List(ctx, tt.limit)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("List() returned %d records, want %d", len(got), len(tt.want))
			}
			for i, rec := range got {
				if rec.ID != tt.want[i] {
					t.Errorf("record %d = %s, want %s", i, rec.ID, tt.want[i])
				}
			}
		})
	}

	n, err := a.Count(ctx)
	if err != nil || n != 5 {
		t.Errorf("Count() = %d, %v; want 5", n, err)
	}
}

func TestArchive_Persistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	rec := newRecord(t, time.Now(), "Ada")

	cfg := DefaultConfig(dir)
	cfg.GCInterval = time.Hour
	first, err := Open(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Put(ctx, rec); err != nil {
		t.Fatal(err)
	}
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	second := openTestArchive(t, DefaultConfig(dir))
	if _, err := second.Get(ctx, rec.ID); err != nil {
		t.Errorf("record lost across reopen: %v", err)
	}
}

func TestArchive_Closed(t *testing.T) {
	a, err := Open(Config{InMemory: true}, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := a.Ping(ctx); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if err := a.Ping(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Ping() after close error = %v", err)
	}
	if err := a.Put(ctx, newRecord(t, time.Now(), "Ada")); !errors.Is(err, ErrClosed) {
		t.Errorf("Put() after close error = %v", err)
	}
	if _, err := a.List(ctx, 1); !errors.Is(err, ErrClosed) {
		t.Errorf("List() after close error = %v", err)
	}
}

func TestArchive_GCAndStats(t *testing.T) {
	a := openTestArchive(t, DefaultConfig(t.TempDir()))
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		if err := a.Put(ctx, newRecord(t, time.Now(), "Ada")); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := a.GC(ctx); err != nil {
		t.Fatalf("GC() error = %v", err)
	}

	stats := a.Stats()
	if stats.LastGCTime == 0 {
		t.Error("LastGCTime not recorded")
	}
	if stats.TotalSize != stats.LSMSize+stats.ValueLogSize {
		t.Errorf("TotalSize = %d, want %d", stats.TotalSize, stats.LSMSize+stats.ValueLogSize)
	}
}

func TestArchive_RegisterMetrics(t *testing.T) {
	a := openTestArchive(t, Config{InMemory: true})
	if err := a.Put(context.Background(), newRecord(t, time.Now(), "Ada")); err != nil {
		t.Fatal(err)
	}

	registry := prometheus.NewRegistry()
	a.RegisterMetrics(registry)

	families, err := registry.Gather()
	if err != nil {
		t.Fatal(err)
	}

	found := false
	for _, mf := range families {
		if mf.GetName() == "gatekeep_archive_records" {
			found = true
			if v := mf.GetMetric()[0].GetGauge().GetValue(); v != 1 {
				t.Errorf("records gauge = %v, want 1", v)
			}
		}
	}
	if !found {
		t.Error("gatekeep_archive_records not registered")
	}
}

func TestOpen_RequiresDir(t *testing.T) {
	if _, err := Open(Config{}, nil); err == nil {
		t.Error("Open() without dir should fail")
	}
}
