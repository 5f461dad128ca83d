package rsvp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"wedding-invitation/internal/directory"
	"wedding-invitation/internal/invitation"
	"wedding-invitation/internal/models"
	"wedding-invitation/internal/storage"
)

var (
	ErrInvalidRequest      = errors.New("invalid rsvp request")
	ErrAlreadySubmitted    = errors.New("rsvp already submitted")
	ErrSubmissionInFlight  = errors.New("rsvp submission already in progress")
	ErrSubmissionTransport = errors.New("rsvp could not be delivered")
)

// Submitter forwards a submission to the form-submission endpoint
type Submitter interface {
	Submit(ctx context.Context, sub models.Submission) error
}

// Notifier is told about every confirmed RSVP
type Notifier interface {
	NotifyRSVP(ctx context.Context, receipt models.RSVPReceipt, sub models.Submission) error
}

// ReceiptStore persists one receipt per guest key
type ReceiptStore interface {
	GetReceipt(key string) (models.RSVPReceipt, error)
	PutReceipt(key string, receipt models.RSVPReceipt) error
}

// SubmitRequest is what the RSVP form posts. QueryName is the name carried
// by the invitation link the form was opened from, if any.
type SubmitRequest struct {
	QueryName           string `json:"-"`
	GuestName           string `json:"guest_name" form:"guest_name" validate:"required,max=200"`
	Attendance          string `json:"attendance" form:"attendance" validate:"required,oneof=accepted declined"`
	GuestCount          int    `json:"guest_count" form:"guest_count" validate:"min=1,max=50"`
	DietaryRestrictions string `json:"dietary_restrictions" form:"dietary_restrictions" validate:"max=1000"`
}

// Service runs the RSVP flow: resolve, submit, record
type Service struct {
	dir       invitation.Resolver
	store     ReceiptStore
	submitter Submitter
	notifier  Notifier
	validate  *validator.Validate
	log       zerolog.Logger
	now       func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewService creates a new RSVP service
func NewService(dir invitation.Resolver, store ReceiptStore, submitter Submitter, log zerolog.Logger) *Service {
	return &Service{
		dir:       dir,
		store:     store,
		submitter: submitter,
		validate:  validator.New(),
		log:       log.With().Str("component", "RSVP").Logger(),
		now:       time.Now,
		inFlight:  make(map[string]struct{}),
	}
}

// SetNotifier sets the notifier told about confirmed RSVPs
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// Open builds the widget for a visit to the invitation link. A guest who has
// already answered gets the stored receipt instead of the form.
func (s *Service) Open(ctx context.Context, rawName, rawGuestCount string) (*Widget, error) {
	form := invitation.Prefill(s.dir, rawName, rawGuestCount)
	if form.OverrideErr != nil {
		s.log.Debug().Err(form.OverrideErr).Msg("Ignoring guest count override")
	}

	w := newWidget(form)
	if w.State != StatePrefilled {
		return w, nil
	}

	receipt, err := s.store.GetReceipt(directory.ReceiptKey(form.Name))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return w, nil
	case err != nil:
		return w, fmt.Errorf("failed to read receipt: %w", err)
	}

	if err := w.restore(receipt); err != nil {
		return w, err
	}
	return w, nil
}

// Submit validates the request, forwards it and records the receipt.
// Validation failures never reach the submitter. A transport failure leaves
// no receipt behind and the guest may retry.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Widget, error) {
	w := newWidget(invitation.Prefill(s.dir, req.QueryName, ""))
	if w.State == StateLockedInvalid {
		return w, fmt.Errorf("link name %q: %w", req.QueryName, directory.ErrNameNotFound)
	}

	if err := s.validate.Struct(req); err != nil {
		return w, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	record, err := s.dir.Lookup(req.GuestName)
	if err != nil {
		return w, fmt.Errorf("guest name %q: %w", req.GuestName, err)
	}
	if err := w.resolve(record, req.GuestCount); err != nil {
		return w, err
	}

	key := directory.ReceiptKey(record.Name)
	if !s.acquire(key) {
		return w, ErrSubmissionInFlight
	}
	defer s.release(key)

	existing, err := s.store.GetReceipt(key)
	switch {
	case err == nil:
		if rerr := w.restore(existing); rerr != nil {
			return w, rerr
		}
		return w, ErrAlreadySubmitted
	case !errors.Is(err, storage.ErrNotFound):
		return w, fmt.Errorf("failed to read receipt: %w", err)
	}

	sub := models.Submission{
		GuestName:           record.Name,
		Attendance:          models.Attendance(req.Attendance),
		GuestCount:          req.GuestCount,
		DietaryRestrictions: req.DietaryRestrictions,
	}

	if err := w.beginSubmit(); err != nil {
		return w, err
	}

	id := uuid.NewString()
	log := s.log.With().Str("submission_id", id).Str("guest", record.Name).Logger()
	log.Info().Str("attendance", req.Attendance).Int("guest_count", req.GuestCount).Msg("Submitting RSVP")

	// The guest cannot cancel a submission once it has been sent.
	sendCtx := context.WithoutCancel(ctx)
	if err := s.submitter.Submit(sendCtx, sub); err != nil {
		log.Error().Err(err).Msg("RSVP submission failed")
		terr := fmt.Errorf("%w: %w", ErrSubmissionTransport, err)
		if ferr := w.failSubmit(terr); ferr != nil {
			return w, ferr
		}
		return w, terr
	}

	receipt := models.RSVPReceipt{
		Name:        record.Name,
		Attendance:  sub.Attendance,
		SubmittedAt: s.now(),
	}
	if err := s.store.PutReceipt(key, receipt); err != nil {
		if errors.Is(err, storage.ErrExists) {
			return w, ErrAlreadySubmitted
		}
		log.Error().Err(err).Msg("RSVP delivered but receipt could not be saved")
		return w, fmt.Errorf("failed to save receipt: %w", err)
	}
	if err := w.confirm(receipt); err != nil {
		return w, err
	}
	log.Info().Msg("RSVP confirmed")

	if s.notifier != nil {
		if err := s.notifier.NotifyRSVP(sendCtx, receipt, sub); err != nil {
			log.Warn().Err(err).Msg("Failed to send RSVP notification")
		}
	}

	return w, nil
}

func (s *Service) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inFlight[key]; busy {
		return false
	}
	s.inFlight[key] = struct{}{}
	return true
}

func (s *Service) release(key string) {
	s.mu.Lock()
	delete(s.inFlight, key)
	s.mu.Unlock()
}
