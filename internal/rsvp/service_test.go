package rsvp

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-invitation/internal/directory"
	"wedding-invitation/internal/models"
	"wedding-invitation/internal/storage"
)

type fakeSubmitter struct {
	mu    sync.Mutex
	calls []models.Submission
	err   error
	hook  func(ctx context.Context)
}

func (f *fakeSubmitter) Submit(ctx context.Context, sub models.Submission) error {
	if f.hook != nil {
		f.hook(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sub)
	return f.err
}

func (f *fakeSubmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeNotifier struct {
	receipts []models.RSVPReceipt
	err      error
}

func (f *fakeNotifier) NotifyRSVP(_ context.Context, r models.RSVPReceipt, _ models.Submission) error {
	f.receipts = append(f.receipts, r)
	return f.err
}

var submittedAt = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, sub Submitter) (*Service, *storage.Storage) {
	t.Helper()
	dir, err := directory.New([]models.GuestRecord{
		{Name: "Luqman Deane", GuestCount: 4, InvitedTo: models.InvitedBoth},
		{Name: "Chanula Herath", GuestCount: 1, InvitedTo: models.InvitedReception},
	})
	require.NoError(t, err)

	store, err := storage.NewStorage(filepath.Join(t.TempDir(), "receipts.json"))
	require.NoError(t, err)

	s := NewService(dir, store, sub, zerolog.Nop())
	s.now = func() time.Time { return submittedAt }
	return s, store
}

func chanulaRequest() SubmitRequest {
	return SubmitRequest{
		QueryName:  "Chanula Herath",
		GuestName:  "Chanula Herath",
		Attendance: "accepted",
		GuestCount: 1,
	}
}

func TestOpenPrefilled(t *testing.T) {
	s, _ := newTestService(t, &fakeSubmitter{})

	w, err := s.Open(context.Background(), "Luqman Deane", "")
	require.NoError(t, err)
	assert.Equal(t, StatePrefilled, w.State)
	assert.Equal(t, 4, w.Form.GuestCount)
	assert.True(t, w.Form.NameLocked)
	assert.True(t, w.Form.GuestCountLocked)
	assert.True(t, w.CanSubmit())

	w, err = s.Open(context.Background(), "Luqman Deane", "2")
	require.NoError(t, err)
	assert.Equal(t, 2, w.Form.GuestCount)
}

func TestOpenUnknownNameIsLocked(t *testing.T) {
	s, _ := newTestService(t, &fakeSubmitter{})

	w, err := s.Open(context.Background(), "Nonexistent Person", "")
	require.NoError(t, err)
	assert.Equal(t, StateLockedInvalid, w.State)
	assert.False(t, w.CanSubmit())
}

func TestOpenWithoutName(t *testing.T) {
	s, _ := newTestService(t, &fakeSubmitter{})

	w, err := s.Open(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, StateUnresolved, w.State)
	assert.False(t, w.Form.NameLocked)
	assert.True(t, w.CanSubmit())
}

func TestSubmitThenRevisitShowsReceipt(t *testing.T) {
	sub := &fakeSubmitter{}
	s, store := newTestService(t, sub)
	notifier := &fakeNotifier{}
	s.SetNotifier(notifier)

	w, err := s.Submit(context.Background(), chanulaRequest())
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, w.State)
	require.NotNil(t, w.Receipt)
	assert.Equal(t, "Chanula Herath", w.Receipt.Name)
	assert.Equal(t, models.AttendanceAccepted, w.Receipt.Attendance)
	require.Len(t, sub.calls, 1)
	assert.Equal(t, models.Submission{
		GuestName:  "Chanula Herath",
		Attendance: models.AttendanceAccepted,
		GuestCount: 1,
	}, sub.calls[0])
	assert.Len(t, notifier.receipts, 1)

	stored, err := store.GetReceipt("chanula_herath")
	require.NoError(t, err)
	assert.True(t, submittedAt.Equal(stored.SubmittedAt))

	w, err = s.Open(context.Background(), "chanula herath", "")
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, w.State)
	assert.False(t, w.CanSubmit())
	require.NotNil(t, w.Receipt)
	assert.Equal(t, models.AttendanceAccepted, w.Receipt.Attendance)

	_, err = s.Submit(context.Background(), chanulaRequest())
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.Equal(t, 1, sub.count())
}

func TestSubmitTransportFailureLeavesNoReceipt(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("connection reset")}
	s, store := newTestService(t, sub)

	w, err := s.Submit(context.Background(), chanulaRequest())
	assert.ErrorIs(t, err, ErrSubmissionTransport)
	assert.Equal(t, StatePrefilled, w.State)
	assert.Contains(t, w.LastError, "connection reset")
	assert.True(t, w.CanSubmit())

	_, err = store.GetReceipt("chanula_herath")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	sub.err = nil
	w, err = s.Submit(context.Background(), chanulaRequest())
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, w.State)
	assert.Equal(t, 2, sub.count())
}

func TestSubmitValidationNeverReachesSubmitter(t *testing.T) {
	tests := map[string]struct {
		mutate func(r *SubmitRequest)
		want   error
	}{
		"typed name unknown": {
			mutate: func(r *SubmitRequest) { r.GuestName = "Nonexistent Person" },
			want:   directory.ErrNameNotFound,
		},
		"link name unknown": {
			mutate: func(r *SubmitRequest) { r.QueryName = "Nonexistent Person" },
			want:   directory.ErrNameNotFound,
		},
		"bad attendance": {
			mutate: func(r *SubmitRequest) { r.Attendance = "maybe" },
			want:   ErrInvalidRequest,
		},
		"no guests": {
			mutate: func(r *SubmitRequest) { r.GuestCount = 0 },
			want:   ErrInvalidRequest,
		},
		"empty name": {
			mutate: func(r *SubmitRequest) { r.GuestName = "" },
			want:   ErrInvalidRequest,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			sub := &fakeSubmitter{}
			s, _ := newTestService(t, sub)

			req := chanulaRequest()
			tt.mutate(&req)
			_, err := s.Submit(context.Background(), req)
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, sub.count())
		})
	}
}

func TestSubmitManualEntry(t *testing.T) {
	sub := &fakeSubmitter{}
	s, _ := newTestService(t, sub)

	w, err := s.Submit(context.Background(), SubmitRequest{
		GuestName:           "  LUQMAN DEANE ",
		Attendance:          "declined",
		GuestCount:          3,
		DietaryRestrictions: "no nuts",
	})
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, w.State)
	assert.Equal(t, "Luqman Deane", w.Form.Name)
	require.Len(t, sub.calls, 1)
	assert.Equal(t, "Luqman Deane", sub.calls[0].GuestName)
	assert.Equal(t, 3, sub.calls[0].GuestCount)
}

func TestSubmitInFlightRejectsSecondSubmission(t *testing.T) {
	started := make(chan struct{})
	unblock := make(chan struct{})
	sub := &fakeSubmitter{hook: func(context.Context) {
		close(started)
		<-unblock
	}}
	s, _ := newTestService(t, sub)

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), chanulaRequest())
		done <- err
	}()

	<-started
	_, err := s.Submit(context.Background(), chanulaRequest())
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	close(unblock)
	require.NoError(t, <-done)
	assert.Equal(t, 1, sub.count())
}

func TestSubmitIgnoresCallerCancellation(t *testing.T) {
	var sendErr error
	sub := &fakeSubmitter{hook: func(ctx context.Context) { sendErr = ctx.Err() }}
	s, _ := newTestService(t, sub)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Submit(ctx, chanulaRequest())
	require.NoError(t, err)
	assert.NoError(t, sendErr)
}

func TestNotifierFailureDoesNotFailRSVP(t *testing.T) {
	s, _ := newTestService(t, &fakeSubmitter{})
	s.SetNotifier(&fakeNotifier{err: errors.New("whatsapp offline")})

	w, err := s.Submit(context.Background(), chanulaRequest())
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, w.State)
}
