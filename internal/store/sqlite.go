package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultSightingInterval bounds how often an unchanged sighting is written.
const DefaultSightingInterval = time.Minute

const lastSelectedKey = "last_selected_device"

// ErrNotFound is returned when a device has no history.
var ErrNotFound = errors.New("store: not found")

// Store represents the SQLite history store.
type Store struct {
	db *sql.DB

	// SightingInterval is the minimum gap between writes of an unchanged
	// sighting. Zero writes every sighting.
	SightingInterval time.Duration

	mu   sync.Mutex
	seen map[string]sighting
}

type sighting struct {
	name string
	at   time.Time
}

// Open opens or creates the SQLite database at the given path and runs migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := MigrateDB(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &Store{
		db:               db,
		SightingInterval: DefaultSightingInterval,
		seen:             make(map[string]sighting),
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordSighting notes that a device was listed at the given time. An empty
// name keeps the previously recorded one.
func (s *Store) RecordSighting(ctx context.Context, id, name string, at time.Time) error {
	if !s.shouldWrite(id, name, at) {
		return nil
	}

	ns := at.UnixNano()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO devices (device_id, name, first_seen_ns, last_seen_ns)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET
			name = CASE WHEN excluded.name <> '' THEN excluded.name ELSE devices.name END,
			last_seen_ns = MAX(devices.last_seen_ns, excluded.last_seen_ns)`,
		id, name, ns, ns,
	)
	if err != nil {
		s.forget(id)
		return fmt.Errorf("record sighting: %w", err)
	}
	return nil
}

func (s *Store) shouldWrite(id, name string, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.seen[id]
	if ok && (name == "" || name == prev.name) && at.Sub(prev.at) < s.SightingInterval {
		return false
	}
	if name == "" && ok {
		name = prev.name
	}
	s.seen[id] = sighting{name: name, at: at}
	return true
}

func (s *Store) forget(id string) {
	s.mu.Lock()
	delete(s.seen, id)
	s.mu.Unlock()
}

// RecordSend counts one delivery attempt to a device.
func (s *Store) RecordSend(ctx context.Context, id string, ok bool, at time.Time) error {
	okInc, failInc := 0, 1
	if ok {
		okInc, failInc = 1, 0
	}

	ns := at.UnixNano()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO devices (device_id, first_seen_ns, last_seen_ns, sends_ok, sends_failed, last_send_ns)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET
			sends_ok = devices.sends_ok + excluded.sends_ok,
			sends_failed = devices.sends_failed + excluded.sends_failed,
			last_send_ns = excluded.last_send_ns`,
		id, ns, ns, okInc, failInc, ns,
	)
	if err != nil {
		return fmt.Errorf("record send: %w", err)
	}
	return nil
}

const deviceColumns = `device_id, name, first_seen_ns, last_seen_ns, sends_ok, sends_failed, last_send_ns`

// Devices returns every recorded device, most recently seen first.
func (s *Store) Devices(ctx context.Context) ([]DeviceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+deviceColumns+` FROM devices ORDER BY last_seen_ns DESC, device_id`)
	if err != nil {
		return nil, fmt.Errorf("query devices: %w", err)
	}
	defer rows.Close()

	var out []DeviceRecord
	for rows.Next() {
		rec, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read devices: %w", err)
	}
	return out, nil
}

// Device returns the history of one device.
func (s *Store) Device(ctx context.Context, id string) (DeviceRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE device_id = ?`, id)
	rec, err := scanDevice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return DeviceRecord{}, ErrNotFound
	}
	return rec, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDevice(sc scanner) (DeviceRecord, error) {
	var (
		rec         DeviceRecord
		first, last int64
		lastSend    sql.NullInt64
	)
	if err := sc.Scan(&rec.ID, &rec.Name, &first, &last, &rec.SendsOK, &rec.SendsFailed, &lastSend); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scan device: %w", err)
	}
	rec.FirstSeen = time.Unix(0, first)
	rec.LastSeen = time.Unix(0, last)
	if lastSend.Valid {
		rec.LastSend = time.Unix(0, lastSend.Int64)
	}
	return rec, nil
}

// PruneBefore deletes devices not seen since cutoff and returns how many
// were removed.
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM devices WHERE last_seen_ns < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune devices: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune devices: %w", err)
	}

	s.mu.Lock()
	s.seen = make(map[string]sighting)
	s.mu.Unlock()
	return n, nil
}

// SetLastSelected remembers the device the user picked.
func (s *Store) SetLastSelected(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_ns) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_ns = excluded.updated_ns`,
		lastSelectedKey, id, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save selection: %w", err)
	}
	return nil
}

// LastSelected returns the remembered device id, or "" when none was saved.
func (s *Store) LastSelected(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, lastSelectedKey).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load selection: %w", err)
	}
	return id, nil
}

// Status checks the schema and reports its migration state.
func (s *Store) Status() (*MigrationStatus, error) {
	if err := ValidateSchema(s.db); err != nil {
		return nil, err
	}
	return GetMigrationStatus(s.db)
}

// Reset forgets all history by rolling back every migration and applying
// them again.
func (s *Store) Reset() error {
	for {
		status, err := GetMigrationStatus(s.db)
		if err != nil {
			return err
		}
		if status.CurrentVersion == 0 {
			break
		}
		if err := RollbackMigration(s.db); err != nil {
			return err
		}
	}
	if err := MigrateDB(s.db); err != nil {
		return err
	}

	s.mu.Lock()
	s.seen = make(map[string]sighting)
	s.mu.Unlock()
	return nil
}
