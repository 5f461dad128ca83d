package invitation

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Link builds the personalised invitation URL for a guest. A guestCount of
// zero leaves the party size to the guest list.
func Link(baseURL, name string, guestCount int) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse base url: %w", err)
	}

	q := u.Query()
	q.Set("name", name)
	if guestCount > 0 {
		q.Set("guest", strconv.Itoa(guestCount))
	}
	u.RawQuery = strings.ReplaceAll(q.Encode(), "+", "%20")

	return u.String(), nil
}

// UIState carries page-level flags the RSVP widget depends on
type UIState struct {
	EnvelopeOpened bool `json:"envelopeOpened"`
}

// RSVPVisible reports whether the RSVP widget is shown yet. The widget only
// appears once the envelope has been opened.
func (u UIState) RSVPVisible() bool {
	return u.EnvelopeOpened
}
