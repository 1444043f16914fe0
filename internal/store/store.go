// Package store persists the reference-area cache and confirmed contacts
// in sqlite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"kiriman/internal/contact"
	"kiriman/internal/wilayah"
)

// Store wraps the sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema. The schema statements are idempotent, so reopening an existing
// database is safe.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetAreas returns the mirrored reference list for one scope, or nil when
// the scope has not been mirrored yet.
func (s *Store) GetAreas(level, parentID string) ([]wilayah.Area, error) {
	rows, err := s.db.Query(
		`SELECT id, name FROM reference_areas WHERE level = ? AND parent_id = ? ORDER BY rowid`,
		level, parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying areas: %w", err)
	}
	defer rows.Close()

	var areas []wilayah.Area
	for rows.Next() {
		var a wilayah.Area
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, fmt.Errorf("scanning area: %w", err)
		}
		areas = append(areas, a)
	}
	return areas, rows.Err()
}

// PutAreas replaces the mirrored list for one scope. Last writer wins;
// content for a given scope is deterministic upstream.
func (s *Store) PutAreas(level, parentID string, areas []wilayah.Area) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM reference_areas WHERE level = ? AND parent_id = ?`, level, parentID); err != nil {
		return fmt.Errorf("clearing scope: %w", err)
	}
	for _, a := range areas {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO reference_areas (level, parent_id, id, name) VALUES (?, ?, ?, ?)`,
			level, parentID, a.ID, a.Name,
		); err != nil {
			return fmt.Errorf("inserting area %s: %w", a.ID, err)
		}
	}
	return tx.Commit()
}

// ClearAreas drops the whole mirrored reference cache.
func (s *Store) ClearAreas() error {
	_, err := s.db.Exec(`DELETE FROM reference_areas`)
	return err
}

// SavedContact is a confirmed contact row.
type SavedContact struct {
	ID               int64                 `json:"id"`
	Name             string                `json:"name"`
	PhoneNumber      string                `json:"phone_number"`
	StreetAddress    string                `json:"street_address"`
	Village          string                `json:"village,omitempty"`
	District         string                `json:"district,omitempty"`
	Regency          string                `json:"regency,omitempty"`
	Province         string                `json:"province,omitempty"`
	PostalCode       string                `json:"postal_code,omitempty"`
	Payment          contact.PaymentMethod `json:"payment_method"`
	FormattedAddress string                `json:"formatted_address"`
	Validated        bool                  `json:"validated"`
	CreatedAt        time.Time             `json:"created_at"`
}

// SaveContact stores a confirmed contact and returns its row id. The
// formatted address is materialized at save time so listings need no
// re-assembly.
func (s *Store) SaveContact(ctx context.Context, c *contact.Contact) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO contacts
			(name, phone, street, village, district, regency, province, postal_code, payment_method, formatted_address, validated)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.PhoneNumber, c.StreetAddress, c.Village, c.District, c.Regency,
		c.Province, c.PostalCode, string(c.Payment), contact.FormatAddress(c), c.Validated,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting contact: %w", err)
	}
	return res.LastInsertId()
}

// RecentContacts lists the most recently saved contacts, newest first.
func (s *Store) RecentContacts(ctx context.Context, limit int) ([]SavedContact, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, phone, street, village, district, regency, province,
		        postal_code, payment_method, formatted_address, validated, created_at
		 FROM contacts ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying contacts: %w", err)
	}
	defer rows.Close()

	var contacts []SavedContact
	for rows.Next() {
		var sc SavedContact
		var payment, createdAt string
		if err := rows.Scan(&sc.ID, &sc.Name, &sc.PhoneNumber, &sc.StreetAddress,
			&sc.Village, &sc.District, &sc.Regency, &sc.Province,
			&sc.PostalCode, &payment, &sc.FormattedAddress, &sc.Validated, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning contact: %w", err)
		}
		sc.Payment = contact.PaymentMethod(payment)
		sc.CreatedAt = parseSQLiteTime(createdAt)
		contacts = append(contacts, sc)
	}
	return contacts, rows.Err()
}

// parseSQLiteTime parses the text forms sqlite's CURRENT_TIMESTAMP and the
// driver produce. An unparseable value yields the zero time.
func parseSQLiteTime(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

const schemaSQL = `
-- reference_areas: durable mirror of the remote administrative dataset,
-- keyed by level and parent scope
CREATE TABLE IF NOT EXISTS reference_areas (
    level TEXT NOT NULL,
    parent_id TEXT NOT NULL DEFAULT '',
    id TEXT NOT NULL,
    name TEXT NOT NULL,
    fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(level, parent_id, id)
);

CREATE INDEX IF NOT EXISTS idx_reference_areas_scope ON reference_areas(level, parent_id);

-- contacts: confirmed contact records
CREATE TABLE IF NOT EXISTS contacts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    phone TEXT NOT NULL,
    street TEXT NOT NULL DEFAULT '',
    village TEXT NOT NULL DEFAULT '',
    district TEXT NOT NULL DEFAULT '',
    regency TEXT NOT NULL DEFAULT '',
    province TEXT NOT NULL DEFAULT '',
    postal_code TEXT NOT NULL DEFAULT '',
    payment_method TEXT NOT NULL DEFAULT 'unknown',
    formatted_address TEXT NOT NULL DEFAULT '',
    validated BOOLEAN NOT NULL DEFAULT FALSE,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_contacts_phone ON contacts(phone);
`
