package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesDirectory(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "subdir", "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestCloseNilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close on nil db should not error: %v", err)
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.RecordSighting(context.Background(), "a", "Phone", time.Now()); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	if err := ValidateSchema(s.db); err != nil {
		t.Errorf("schema invalid after reopen: %v", err)
	}
	if _, err := s.Device(context.Background(), "a"); err != nil {
		t.Errorf("device lost across reopen: %v", err)
	}
}

func TestRecordSighting(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	t0 := time.Unix(1700000000, 0)

	if err := s.RecordSighting(ctx, "abc", "Phone", t0); err != nil {
		t.Fatalf("RecordSighting failed: %v", err)
	}
	// An unnamed sighting keeps the earlier name.
	s.SightingInterval = 0
	if err := s.RecordSighting(ctx, "abc", "", t0.Add(time.Hour)); err != nil {
		t.Fatalf("RecordSighting failed: %v", err)
	}

	rec, err := s.Device(ctx, "abc")
	if err != nil {
		t.Fatalf("Device failed: %v", err)
	}
	if rec.Name != "Phone" {
		t.Errorf("name = %q, want Phone", rec.Name)
	}
	if !rec.FirstSeen.Equal(t0) {
		t.Errorf("first seen = %v, want %v", rec.FirstSeen, t0)
	}
	if !rec.LastSeen.Equal(t0.Add(time.Hour)) {
		t.Errorf("last seen = %v", rec.LastSeen)
	}
	if !rec.LastSend.IsZero() {
		t.Errorf("last send should be zero, got %v", rec.LastSend)
	}
}

func TestRecordSightingThrottle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	t0 := time.Unix(1700000000, 0)

	s.RecordSighting(ctx, "abc", "Phone", t0)
	s.RecordSighting(ctx, "abc", "Phone", t0.Add(time.Second))

	rec, _ := s.Device(ctx, "abc")
	if !rec.LastSeen.Equal(t0) {
		t.Errorf("throttled sighting was written: last seen %v", rec.LastSeen)
	}

	// A rename is written immediately.
	s.RecordSighting(ctx, "abc", "Tablet", t0.Add(2*time.Second))
	rec, _ = s.Device(ctx, "abc")
	if rec.Name != "Tablet" {
		t.Errorf("rename not written: %q", rec.Name)
	}

	s.RecordSighting(ctx, "abc", "Tablet", t0.Add(2*time.Second+DefaultSightingInterval))
	rec, _ = s.Device(ctx, "abc")
	if !rec.LastSeen.Equal(t0.Add(2*time.Second + DefaultSightingInterval)) {
		t.Errorf("sighting after interval not written: %v", rec.LastSeen)
	}
}

func TestRecordSend(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	t0 := time.Unix(1700000000, 0)

	s.RecordSighting(ctx, "abc", "Phone", t0)
	for _, ok := range []bool{true, true, false, true} {
		if err := s.RecordSend(ctx, "abc", ok, t0.Add(time.Minute)); err != nil {
			t.Fatalf("RecordSend failed: %v", err)
		}
	}

	rec, err := s.Device(ctx, "abc")
	if err != nil {
		t.Fatal(err)
	}
	if rec.SendsOK != 3 || rec.SendsFailed != 1 {
		t.Errorf("counters = %d/%d, want 3/1", rec.SendsOK, rec.SendsFailed)
	}
	if !rec.LastSend.Equal(t0.Add(time.Minute)) {
		t.Errorf("last send = %v", rec.LastSend)
	}
	if rec.Name != "Phone" {
		t.Errorf("send overwrote name: %q", rec.Name)
	}
}

func TestRecordSendUnknownDevice(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.RecordSend(ctx, "new", false, time.Now()); err != nil {
		t.Fatalf("RecordSend failed: %v", err)
	}
	rec, err := s.Device(ctx, "new")
	if err != nil {
		t.Fatal(err)
	}
	if rec.SendsFailed != 1 || rec.Label() != "new" {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestDevicesOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	t0 := time.Unix(1700000000, 0)

	s.RecordSighting(ctx, "old", "Old", t0)
	s.RecordSighting(ctx, "new", "New", t0.Add(time.Hour))

	recs, err := s.Devices(ctx)
	if err != nil {
		t.Fatalf("Devices failed: %v", err)
	}
	if len(recs) != 2 || recs[0].ID != "new" || recs[1].ID != "old" {
		t.Errorf("unexpected order: %+v", recs)
	}
}

func TestDeviceNotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Device(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPruneBefore(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	t0 := time.Unix(1700000000, 0)

	s.RecordSighting(ctx, "old", "Old", t0)
	s.RecordSighting(ctx, "new", "New", t0.Add(48*time.Hour))

	n, err := s.PruneBefore(ctx, t0.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("PruneBefore failed: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d, want 1", n)
	}
	if _, err := s.Device(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("old device survived prune: %v", err)
	}
}

func TestLastSelected(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.LastSelected(ctx)
	if err != nil || id != "" {
		t.Fatalf("LastSelected on empty store = (%q, %v)", id, err)
	}

	s.SetLastSelected(ctx, "abc")
	s.SetLastSelected(ctx, "def")

	id, err = s.LastSelected(ctx)
	if err != nil || id != "def" {
		t.Errorf("LastSelected = (%q, %v), want def", id, err)
	}
}

func TestMigrationStatusAndRollback(t *testing.T) {
	s := openTestStore(t)

	status, err := GetMigrationStatus(s.db)
	if err != nil {
		t.Fatal(err)
	}
	if status.CurrentVersion != status.LatestVersion || len(status.Pending) != 0 {
		t.Errorf("unexpected status: %+v", status)
	}

	if err := RollbackMigration(s.db); err != nil {
		t.Fatalf("RollbackMigration failed: %v", err)
	}
	if err := ValidateSchema(s.db); err == nil {
		t.Error("settings table should be gone after rollback")
	}
	if err := MigrateDB(s.db); err != nil {
		t.Fatalf("re-migrate failed: %v", err)
	}
	if err := ValidateSchema(s.db); err != nil {
		t.Errorf("schema invalid after re-migrate: %v", err)
	}
}

func TestStoreStatus(t *testing.T) {
	s := openTestStore(t)

	status, err := s.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.CurrentVersion != len(migrations) || len(status.Applied) != len(migrations) {
		t.Errorf("unexpected status: %+v", status)
	}

	if _, err := s.db.Exec("DROP TABLE settings"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Status(); err == nil || !strings.Contains(err.Error(), "settings") {
		t.Errorf("Status with a missing table = %v, want error naming it", err)
	}
}

func TestStoreReset(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	if err := s.RecordSighting(ctx, "dev1", "Pixel", now); err != nil {
		t.Fatal(err)
	}
	if err := s.SetLastSelected(ctx, "dev1"); err != nil {
		t.Fatal(err)
	}

	if err := s.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	recs, err := s.Devices(ctx)
	if err != nil || len(recs) != 0 {
		t.Errorf("Devices after reset = (%v, %v), want none", recs, err)
	}
	if id, _ := s.LastSelected(ctx); id != "" {
		t.Errorf("LastSelected after reset = %q, want empty", id)
	}
	if err := ValidateSchema(s.db); err != nil {
		t.Errorf("schema invalid after reset: %v", err)
	}

	// The sighting throttle is cleared too.
	if err := s.RecordSighting(ctx, "dev1", "Pixel", now); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Device(ctx, "dev1"); err != nil {
		t.Errorf("sighting after reset not written: %v", err)
	}
}
