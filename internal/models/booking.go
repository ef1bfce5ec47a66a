package models

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus is the lifecycle state of a booking. Cancelled is terminal.
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusWaitlist  BookingStatus = "waitlist"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Holds reports whether the booking still occupies a place for its occurrence.
func (s BookingStatus) Holds() bool {
	return s == BookingStatusConfirmed || s == BookingStatusWaitlist
}

type Booking struct {
	ID              uuid.UUID     `json:"id"`
	MemberID        uuid.UUID     `json:"memberId"`
	ClassTemplateID uuid.UUID     `json:"classTemplateId"`
	ClassName       string        `json:"className"`
	ClassType       string        `json:"classType"`
	Instructor      string        `json:"instructor"`
	OccurrenceDate  time.Time     `json:"occurrenceDate"`
	WallClockTime   string        `json:"time"`
	CreditsUsed     int           `json:"creditsUsed"`
	Status          BookingStatus `json:"status"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}
