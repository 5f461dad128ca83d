package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"wedding-invitation/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS rsvp_receipts (
	receipt_key  TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	attendance   TEXT NOT NULL,
	submitted_at TEXT NOT NULL
)`

// fixed-width so that submitted_at sorts lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore keeps RSVP receipts in a sqlite database
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed creates) the receipt database
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) GetReceipt(key string) (models.RSVPReceipt, error) {
	row := s.db.QueryRow(
		`SELECT name, attendance, submitted_at FROM rsvp_receipts WHERE receipt_key = ?`, key)

	r, err := scanReceipt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RSVPReceipt{}, ErrNotFound
	}
	return r, err
}

func (s *SQLiteStore) PutReceipt(key string, receipt models.RSVPReceipt) error {
	_, err := s.db.Exec(
		`INSERT INTO rsvp_receipts (receipt_key, name, attendance, submitted_at) VALUES (?, ?, ?, ?)`,
		key, receipt.Name, string(receipt.Attendance), receipt.SubmittedAt.UTC().Format(timeLayout))
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return ErrExists
		}
		return fmt.Errorf("failed to insert receipt: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListReceipts() ([]models.RSVPReceipt, error) {
	return s.query(`SELECT name, attendance, submitted_at FROM rsvp_receipts ORDER BY submitted_at`)
}

func (s *SQLiteStore) ListByAttendance(attendance models.Attendance) ([]models.RSVPReceipt, error) {
	return s.query(
		`SELECT name, attendance, submitted_at FROM rsvp_receipts WHERE attendance = ? ORDER BY submitted_at`,
		string(attendance))
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) query(q string, args ...any) ([]models.RSVPReceipt, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query receipts: %w", err)
	}
	defer rows.Close()

	var receipts []models.RSVPReceipt
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, r)
	}
	return receipts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row scanner) (models.RSVPReceipt, error) {
	var (
		r           models.RSVPReceipt
		attendance  string
		submittedAt string
	)
	if err := row.Scan(&r.Name, &attendance, &submittedAt); err != nil {
		return models.RSVPReceipt{}, err
	}

	t, err := time.Parse(timeLayout, submittedAt)
	if err != nil {
		return models.RSVPReceipt{}, fmt.Errorf("failed to parse submitted_at: %w", err)
	}
	r.Attendance = models.Attendance(attendance)
	r.SubmittedAt = t
	return r, nil
}
