package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"wedding-invitation/internal/models"
)

var (
	ErrNotFound = errors.New("receipt not found")
	ErrExists   = errors.New("receipt already exists")
)

// Storage keeps RSVP receipts in a JSON file, one per receipt key
type Storage struct {
	mu       sync.RWMutex
	receipts map[string]models.RSVPReceipt
	file     string
}

// NewStorage creates a new storage instance
func NewStorage(filePath string) (*Storage, error) {
	s := &Storage{
		receipts: make(map[string]models.RSVPReceipt),
		file:     filePath,
	}

	// Load existing data if file exists
	if _, err := os.Stat(filePath); err == nil {
		if err := s.Load(); err != nil {
			return nil, fmt.Errorf("failed to load storage: %w", err)
		}
	}

	return s, nil
}

// GetReceipt retrieves a receipt by key
func (s *Storage) GetReceipt(key string) (models.RSVPReceipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.receipts[key]
	if !ok {
		return models.RSVPReceipt{}, ErrNotFound
	}
	return r, nil
}

// PutReceipt stores a new receipt. Receipts are never overwritten.
func (s *Storage) PutReceipt(key string, receipt models.RSVPReceipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.receipts[key]; ok {
		return ErrExists
	}

	s.receipts[key] = receipt
	if err := s.save(); err != nil {
		delete(s.receipts, key)
		return err
	}
	return nil
}

// ListReceipts returns all receipts ordered by submission time
func (s *Storage) ListReceipts() ([]models.RSVPReceipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	receipts := make([]models.RSVPReceipt, 0, len(s.receipts))
	for _, r := range s.receipts {
		receipts = append(receipts, r)
	}
	sortReceipts(receipts)
	return receipts, nil
}

// ListByAttendance returns receipts filtered by attendance
func (s *Storage) ListByAttendance(attendance models.Attendance) ([]models.RSVPReceipt, error) {
	all, err := s.ListReceipts()
	if err != nil {
		return nil, err
	}

	var result []models.RSVPReceipt
	for _, r := range all {
		if r.Attendance == attendance {
			result = append(result, r)
		}
	}
	return result, nil
}

// Close is a no-op; every write is flushed immediately
func (s *Storage) Close() error {
	return nil
}

// save writes the receipts to a temp file and renames it over the real one.
// Caller must hold the write lock.
func (s *Storage) save() error {
	data, err := json.MarshalIndent(s.receipts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(s.file)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp := s.file + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return os.Rename(tmp, s.file)
}

// Load loads receipts from file
func (s *Storage) Load() error {
	data, err := os.ReadFile(s.file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(data) == 0 {
		s.receipts = make(map[string]models.RSVPReceipt)
		return nil
	}

	receipts := make(map[string]models.RSVPReceipt)
	if err := json.Unmarshal(data, &receipts); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}
	s.receipts = receipts

	return nil
}

func sortReceipts(receipts []models.RSVPReceipt) {
	sort.Slice(receipts, func(i, j int) bool {
		return receipts[i].SubmittedAt.Before(receipts[j].SubmittedAt)
	})
}
