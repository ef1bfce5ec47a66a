package models

import (
	"time"

	"github.com/google/uuid"
)

// Member roles.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// CreditLot is a chunk of purchased credits with its own expiry date. Lots are
// expiry bookkeeping only; CreditBalance is the spendable total.
type CreditLot struct {
	Amount     int       `json:"amount"`
	ExpiryDate time.Time `json:"expiryDate"`
}

type Member struct {
	ID             uuid.UUID   `json:"id"`
	Email          string      `json:"email"`
	Name           string      `json:"name"`
	PasswordHash   string      `json:"-"`
	Role           string      `json:"role"`
	CreditBalance  int         `json:"creditBalance"`
	CreditLots     []CreditLot `json:"creditLots"`
	FormsCompleted []string    `json:"formsCompleted"`
	ExpiryPaused   bool        `json:"expiryPaused"`
	PausedUntil    *time.Time  `json:"pausedUntil,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// HasCompletedForms reports whether every form in required is in FormsCompleted.
func (m *Member) HasCompletedForms(required []string) bool {
	done := make(map[string]bool, len(m.FormsCompleted))
	for _, f := range m.FormsCompleted {
		done[f] = true
	}
	for _, f := range required {
		if !done[f] {
			return false
		}
	}
	return true
}

// ExpiryPausedAt reports whether the admin expiry pause is in effect at now.
// A pause with a resume date stops applying once that date has passed, even if
// the resume job has not run yet.
func (m *Member) ExpiryPausedAt(now time.Time) bool {
	if !m.ExpiryPaused {
		return false
	}
	if m.PausedUntil == nil {
		return true
	}
	return now.Before(*m.PausedUntil)
}
