package models

import (
	"fmt"
	"time"
)

// InvitedTo scopes which of the wedding events a guest may attend
type InvitedTo string

const (
	InvitedBoth      InvitedTo = "both"
	InvitedChurch    InvitedTo = "church"
	InvitedReception InvitedTo = "reception"
)

// ParseInvitedTo accepts only the closed set of invitation scopes
func ParseInvitedTo(s string) (InvitedTo, error) {
	switch v := InvitedTo(s); v {
	case InvitedBoth, InvitedChurch, InvitedReception:
		return v, nil
	}
	return "", fmt.Errorf("unknown invitation scope %q", s)
}

// GuestRecord is one entry of the guest directory
type GuestRecord struct {
	Name       string    `json:"name" yaml:"name"`
	GuestCount int       `json:"guestCount" yaml:"guestCount"`
	InvitedTo  InvitedTo `json:"invitedTo" yaml:"invitedTo"`
}

// Attendance is the outcome a guest picked on the RSVP form
type Attendance string

const (
	AttendanceAccepted Attendance = "accepted"
	AttendanceDeclined Attendance = "declined"
)

func ParseAttendance(s string) (Attendance, error) {
	switch v := Attendance(s); v {
	case AttendanceAccepted, AttendanceDeclined:
		return v, nil
	}
	return "", fmt.Errorf("unknown attendance %q", s)
}

// RSVPReceipt records that a guest has already answered
type RSVPReceipt struct {
	Name        string     `json:"name"`
	Attendance  Attendance `json:"attendance"`
	SubmittedAt time.Time  `json:"submittedAt"`
}

// Submission is the payload forwarded to the form-submission endpoint
type Submission struct {
	GuestName           string     `json:"guest_name"`
	Attendance          Attendance `json:"attendance"`
	GuestCount          int        `json:"guest_count"`
	DietaryRestrictions string     `json:"dietary_restrictions"`
}
