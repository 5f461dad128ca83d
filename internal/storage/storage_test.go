package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-invitation/internal/models"
)

type receiptStore interface {
	GetReceipt(key string) (models.RSVPReceipt, error)
	PutReceipt(key string, receipt models.RSVPReceipt) error
	ListReceipts() ([]models.RSVPReceipt, error)
	ListByAttendance(attendance models.Attendance) ([]models.RSVPReceipt, error)
	Close() error
}

func stores(t *testing.T) map[string]func(path string) receiptStore {
	return map[string]func(path string) receiptStore{
		"json": func(dir string) receiptStore {
			s, err := NewStorage(filepath.Join(dir, "receipts.json"))
			require.NoError(t, err)
			return s
		},
		"sqlite": func(dir string) receiptStore {
			s, err := NewSQLiteStore(filepath.Join(dir, "receipts.db"))
			require.NoError(t, err)
			return s
		},
	}
}

func TestReceiptStores(t *testing.T) {
	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			s := open(dir)

			_, err := s.GetReceipt("chanula_herath")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.PutReceipt("luqman_deane", models.RSVPReceipt{
				Name: "Luqman Deane", Attendance: models.AttendanceDeclined, SubmittedAt: second,
			}))
			require.NoError(t, s.PutReceipt("chanula_herath", models.RSVPReceipt{
				Name: "Chanula Herath", Attendance: models.AttendanceAccepted, SubmittedAt: first,
			}))

			err = s.PutReceipt("chanula_herath", models.RSVPReceipt{
				Name: "Chanula Herath", Attendance: models.AttendanceDeclined, SubmittedAt: second,
			})
			assert.ErrorIs(t, err, ErrExists)

			got, err := s.GetReceipt("chanula_herath")
			require.NoError(t, err)
			assert.Equal(t, "Chanula Herath", got.Name)
			assert.Equal(t, models.AttendanceAccepted, got.Attendance)
			assert.True(t, first.Equal(got.SubmittedAt))

			all, err := s.ListReceipts()
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "Chanula Herath", all[0].Name)
			assert.Equal(t, "Luqman Deane", all[1].Name)

			declined, err := s.ListByAttendance(models.AttendanceDeclined)
			require.NoError(t, err)
			require.Len(t, declined, 1)
			assert.Equal(t, "Luqman Deane", declined[0].Name)

			require.NoError(t, s.Close())

			// receipts survive a restart
			reopened := open(dir)
			defer reopened.Close()
			got, err = reopened.GetReceipt("luqman_deane")
			require.NoError(t, err)
			assert.Equal(t, models.AttendanceDeclined, got.Attendance)
		})
	}
}

func TestStorageFileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "receipts.json")
	s, err := NewStorage(path)
	require.NoError(t, err)

	require.NoError(t, s.PutReceipt("chanula_herath", models.RSVPReceipt{
		Name:        "Chanula Herath",
		Attendance:  models.AttendanceAccepted,
		SubmittedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"chanula_herath": {
			"name": "Chanula Herath",
			"attendance": "accepted",
			"submittedAt": "2026-03-01T10:00:00Z"
		}
	}`, string(data))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestNewStorageEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receipts.json")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	s, err := NewStorage(path)
	require.NoError(t, err)

	all, err := s.ListReceipts()
	require.NoError(t, err)
	assert.Empty(t, all)
}
