package rsvp

import (
	"errors"
	"fmt"

	"wedding-invitation/internal/invitation"
	"wedding-invitation/internal/models"
)

var ErrInvalidTransition = errors.New("invalid rsvp widget transition")

// State is the state of the RSVP widget for one guest
type State string

const (
	StateUnresolved    State = "unresolved"
	StatePrefilled     State = "prefilled"
	StateLockedInvalid State = "locked_invalid"
	StateSubmitting    State = "submitting"
	StateConfirmed     State = "confirmed"
)

// Confirmed and locked_invalid have no way out.
var transitions = map[State][]State{
	StateUnresolved: {StatePrefilled, StateLockedInvalid},
	StatePrefilled:  {StateSubmitting},
	StateSubmitting: {StateConfirmed, StatePrefilled},
}

// Widget is the RSVP form together with where it is in its lifecycle
type Widget struct {
	State     State                `json:"state"`
	Form      invitation.FormState `json:"form"`
	Receipt   *models.RSVPReceipt  `json:"receipt,omitempty"`
	LastError string               `json:"lastError,omitempty"`
}

func newWidget(form invitation.FormState) *Widget {
	w := &Widget{State: StateUnresolved, Form: form}
	switch form.Status {
	case invitation.FormPrefilled:
		w.State = StatePrefilled
	case invitation.FormRejected:
		w.State = StateLockedInvalid
	}
	return w
}

// CanSubmit reports whether the submit control is enabled
func (w *Widget) CanSubmit() bool {
	return w.State == StateUnresolved || w.State == StatePrefilled
}

func (w *Widget) transition(to State) error {
	for _, s := range transitions[w.State] {
		if s == to {
			w.State = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, w.State, to)
}

// resolve moves a manually filled form to prefilled once its name is known
func (w *Widget) resolve(record models.GuestRecord, guestCount int) error {
	if w.State == StatePrefilled {
		return nil
	}
	if err := w.transition(StatePrefilled); err != nil {
		return err
	}
	w.Form.Status = invitation.FormPrefilled
	w.Form.Name = record.Name
	w.Form.GuestCount = guestCount
	w.Form.Record = &record
	return nil
}

func (w *Widget) beginSubmit() error {
	w.LastError = ""
	return w.transition(StateSubmitting)
}

func (w *Widget) failSubmit(err error) error {
	w.LastError = err.Error()
	return w.transition(StatePrefilled)
}

func (w *Widget) confirm(receipt models.RSVPReceipt) error {
	if err := w.transition(StateConfirmed); err != nil {
		return err
	}
	w.Receipt = &receipt
	return nil
}

// restore short-circuits a prefilled form to a receipt stored earlier
func (w *Widget) restore(receipt models.RSVPReceipt) error {
	if w.State != StatePrefilled {
		return fmt.Errorf("%w: restore from %s", ErrInvalidTransition, w.State)
	}
	w.State = StateConfirmed
	w.Receipt = &receipt
	return nil
}
