package invitation

import "wedding-invitation/internal/models"

// Reception headings. The default frames the reception as the second event
// of the day; guests invited only to the reception get the standalone one.
const (
	ReceptionHeadingFollowing  = "Followed by the Reception"
	ReceptionHeadingStandalone = "The Wedding Reception"
	ChurchHeading              = "The Ceremony"
)

// VisibilitySet tells the page which event sections to render
type VisibilitySet struct {
	ShowChurch       bool   `json:"showChurch"`
	ShowReception    bool   `json:"showReception"`
	ShowDivider      bool   `json:"showDivider"`
	ChurchHeading    string `json:"churchHeading"`
	ReceptionHeading string `json:"receptionHeading"`
}

// Customize maps a guest's invitation scope onto section visibility. A nil
// record (no name, or an unknown one) gets the fully open invitation.
func Customize(record *models.GuestRecord) VisibilitySet {
	v := VisibilitySet{
		ShowChurch:       true,
		ShowReception:    true,
		ShowDivider:      true,
		ChurchHeading:    ChurchHeading,
		ReceptionHeading: ReceptionHeadingFollowing,
	}
	if record == nil {
		return v
	}

	switch record.InvitedTo {
	case models.InvitedReception:
		v.ShowChurch = false
		v.ShowDivider = false
		v.ReceptionHeading = ReceptionHeadingStandalone
	case models.InvitedChurch:
		v.ShowReception = false
		v.ShowDivider = false
	}
	return v
}
