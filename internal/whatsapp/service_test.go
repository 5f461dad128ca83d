package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"wedding-invitation/internal/models"
)

func TestNormalizePhoneNumber(t *testing.T) {
	tests := []struct {
		in, cc, want string
	}{
		{"077 123 4567", "94", "94771234567"},
		{"+94 77-123-4567", "94", "94771234567"},
		{"(+94) 0771234567", "+94", "94771234567"},
		{"94771234567", "94", "94771234567"},
		{"0771234567", "", "0771234567"},
		{"050-123-4567", "972", "972501234567"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePhoneNumber(tt.in, tt.cc), "input %q", tt.in)
	}
}

func TestInvitationMessage(t *testing.T) {
	msg := invitationMessage("Luqman Deane", "Anne & Ben", "Saturday, 9 May 2026",
		"https://example.com/?name=Luqman%20Deane")

	assert.Contains(t, msg, "Dear Luqman Deane")
	assert.Contains(t, msg, "*Anne & Ben*")
	assert.Contains(t, msg, "Saturday, 9 May 2026")
	assert.Contains(t, msg, "https://example.com/?name=Luqman%20Deane")
}

func TestRSVPMessage(t *testing.T) {
	msg := rsvpMessage(
		models.RSVPReceipt{Name: "Chanula Herath", Attendance: models.AttendanceAccepted},
		models.Submission{GuestCount: 1, DietaryRestrictions: "vegan"},
	)
	assert.Equal(t, "✅ *RSVP* Chanula Herath has accepted (party of 1)\nDietary: vegan", msg)

	msg = rsvpMessage(
		models.RSVPReceipt{Name: "Luqman Deane", Attendance: models.AttendanceDeclined},
		models.Submission{GuestCount: 4},
	)
	assert.Equal(t, "❌ *RSVP* Luqman Deane has declined (party of 4)", msg)
}
