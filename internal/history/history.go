// Package history persists refresh and detection results in a local
// SQLite database so past billing data survives restarts.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// RefreshRecord is one stored refresh result for a single service.
type RefreshRecord struct {
	ID             int64
	ServiceID      string
	ServiceName    string
	ServiceType    string
	LastUpdated    time.Time
	AttributeCount int
	Attributes     map[string]string
	CreatedAt      time.Time
}

// DetectionRecord is one stored detection run result.
type DetectionRecord struct {
	ID            int64
	ServiceID     string
	ServiceName   string
	ServiceType   string
	SampleFrom    string
	SampleSubject string
	EmailCount    int
	CreatedAt     time.Time
}

// Store wraps the SQLite database holding refresh history.
type Store struct {
	db *sql.DB
}

// DefaultDBPath returns the standard history database location.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".concierge", "history.db"), nil
}

// NewStore opens (creating if needed) the database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS refreshes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			service_id TEXT NOT NULL,
			service_name TEXT NOT NULL,
			service_type TEXT NOT NULL DEFAULT '',
			last_updated DATETIME,
			attribute_count INTEGER NOT NULL DEFAULT 0,
			attributes TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_refreshes_service_id ON refreshes(service_id);
		CREATE INDEX IF NOT EXISTS idx_refreshes_created_at ON refreshes(created_at);

		CREATE TABLE IF NOT EXISTS detections (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			service_id TEXT NOT NULL,
			service_name TEXT NOT NULL,
			service_type TEXT NOT NULL DEFAULT '',
			sample_from TEXT NOT NULL DEFAULT '',
			sample_subject TEXT NOT NULL DEFAULT '',
			email_count INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_detections_service_id ON detections(service_id);
	`)
	return err
}

// RecordRefresh stores the attributes extracted for a service during a
// refresh cycle.
func (s *Store) RecordRefresh(r *RefreshRecord) error {
	attrs, err := json.Marshal(r.Attributes)
	if err != nil {
		return fmt.Errorf("encoding attributes: %w", err)
	}

	result, err := s.db.Exec(`
		INSERT INTO refreshes (service_id, service_name, service_type, last_updated, attribute_count, attributes)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.ServiceID, r.ServiceName, r.ServiceType, r.LastUpdated, len(r.Attributes), string(attrs))
	if err != nil {
		return fmt.Errorf("inserting refresh record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting insert ID: %w", err)
	}
	r.ID = id
	r.AttributeCount = len(r.Attributes)

	return nil
}

// RecordDetection stores the outcome of a detection run for one service.
func (s *Store) RecordDetection(d *DetectionRecord) error {
	result, err := s.db.Exec(`
		INSERT INTO detections (service_id, service_name, service_type, sample_from, sample_subject, email_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`, d.ServiceID, d.ServiceName, d.ServiceType, d.SampleFrom, d.SampleSubject, d.EmailCount)
	if err != nil {
		return fmt.Errorf("inserting detection record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting insert ID: %w", err)
	}
	d.ID = id

	return nil
}

// RecentRefreshes returns the most recent refresh records, newest first.
func (s *Store) RecentRefreshes(limit int) ([]*RefreshRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, service_id, service_name, service_type, last_updated, attribute_count, attributes, created_at
		FROM refreshes
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying refreshes: %w", err)
	}
	defer rows.Close()

	var records []*RefreshRecord
	for rows.Next() {
		r, err := scanRefresh(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// LatestRefresh returns the newest stored refresh for the given service,
// or nil when none exists.
func (s *Store) LatestRefresh(serviceID string) (*RefreshRecord, error) {
	row := s.db.QueryRow(`
		SELECT id, service_id, service_name, service_type, last_updated, attribute_count, attributes, created_at
		FROM refreshes
		WHERE service_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, serviceID)

	r, err := scanRefresh(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// RecentDetections returns the most recent detection records, newest first.
func (s *Store) RecentDetections(limit int) ([]*DetectionRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, service_id, service_name, service_type, sample_from, sample_subject, email_count, created_at
		FROM detections
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying detections: %w", err)
	}
	defer rows.Close()

	var records []*DetectionRecord
	for rows.Next() {
		d := &DetectionRecord{}
		var created sql.NullTime
		if err := rows.Scan(&d.ID, &d.ServiceID, &d.ServiceName, &d.ServiceType,
			&d.SampleFrom, &d.SampleSubject, &d.EmailCount, &created); err != nil {
			return nil, fmt.Errorf("scanning detection record: %w", err)
		}
		if created.Valid {
			d.CreatedAt = created.Time
		}
		records = append(records, d)
	}

	return records, rows.Err()
}

// Stats summarizes the stored history.
type Stats struct {
	TotalRefreshes  int
	TotalDetections int
	TrackedServices int
}

// GetStats returns aggregate counts over the history tables.
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM refreshes`).Scan(&stats.TotalRefreshes); err != nil {
		return nil, fmt.Errorf("counting refreshes: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM detections`).Scan(&stats.TotalDetections); err != nil {
		return nil, fmt.Errorf("counting detections: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(DISTINCT service_id) FROM refreshes`).Scan(&stats.TrackedServices); err != nil {
		return nil, fmt.Errorf("counting services: %w", err)
	}

	return stats, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func scanRefresh(row interface{ Scan(...any) error }) (*RefreshRecord, error) {
	r := &RefreshRecord{}
	var lastUpdated, created sql.NullTime
	var attrs string

	err := row.Scan(&r.ID, &r.ServiceID, &r.ServiceName, &r.ServiceType,
		&lastUpdated, &r.AttributeCount, &attrs, &created)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning refresh record: %w", err)
	}

	if lastUpdated.Valid {
		r.LastUpdated = lastUpdated.Time
	}
	if created.Valid {
		r.CreatedAt = created.Time
	}
	if err := json.Unmarshal([]byte(attrs), &r.Attributes); err != nil {
		return nil, fmt.Errorf("decoding attributes: %w", err)
	}

	return r, nil
}
