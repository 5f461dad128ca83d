package invitation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"wedding-invitation/internal/models"
)

// ErrMalformedOverride marks a guest-count override that is not an integer.
// The override is ignored; it never blocks the form.
var ErrMalformedOverride = errors.New("guest count override is not an integer")

// Resolver finds a guest by the name carried in an invitation link
type Resolver interface {
	Lookup(rawName string) (models.GuestRecord, error)
}

// FormStatus is the initial status of the RSVP form
type FormStatus string

const (
	FormOpen      FormStatus = "open"
	FormPrefilled FormStatus = "prefilled"
	FormRejected  FormStatus = "rejected"
)

// FormState is the RSVP form as it is first shown to a guest.
// GuestCount zero means the field is left blank.
type FormState struct {
	Status           FormStatus          `json:"status"`
	Name             string              `json:"name"`
	NameLocked       bool                `json:"nameLocked"`
	GuestCount       int                 `json:"guestCount,omitempty"`
	GuestCountLocked bool                `json:"guestCountLocked"`
	Record           *models.GuestRecord `json:"-"`
	OverrideErr      error               `json:"-"`
}

// Rejected reports whether the link named someone who is not on the list
func (f FormState) Rejected() bool {
	return f.Status == FormRejected
}

// Prefill builds the RSVP form from the link's name and guest parameters
func Prefill(dir Resolver, rawName, rawGuestCount string) FormState {
	override, overrideErr := parseOverride(rawGuestCount)

	if strings.TrimSpace(rawName) == "" {
		f := FormState{Status: FormOpen, OverrideErr: overrideErr}
		if override != nil {
			f.GuestCount = *override
		}
		return f
	}

	record, err := dir.Lookup(rawName)
	if err != nil {
		return FormState{Status: FormRejected, OverrideErr: overrideErr}
	}

	f := FormState{
		Status:           FormPrefilled,
		Name:             record.Name,
		NameLocked:       true,
		GuestCount:       record.GuestCount,
		GuestCountLocked: true,
		Record:           &record,
		OverrideErr:      overrideErr,
	}
	if override != nil {
		f.GuestCount = *override
	}
	return f
}

func parseOverride(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrMalformedOverride, raw)
	}
	return &n, nil
}
