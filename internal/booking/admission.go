package booking

import (
	"github.com/fightflight/backend/internal/models"
)

// Outcome is the result of admission control for one booking request.
type Outcome int

const (
	OutcomeRejected Outcome = iota
	OutcomeConfirmed
	OutcomeWaitlisted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeConfirmed:
		return "confirmed"
	case OutcomeWaitlisted:
		return "waitlisted"
	default:
		return "rejected"
	}
}

// Decision carries the outcome and, for rejections, the error kind
// (models.ErrFormsIncomplete or models.ErrInsufficientCredits).
type Decision struct {
	Outcome Outcome
	Reason  error
}

// Status maps an admitted decision to the booking's initial status.
func (d Decision) Status() models.BookingStatus {
	if d.Outcome == OutcomeWaitlisted {
		return models.BookingStatusWaitlist
	}
	return models.BookingStatusConfirmed
}

// Evaluate decides whether a member may book one occurrence of a class. held
// is the number of confirmed or waitlisted bookings already on that
// occurrence. Checks run in order and the first failure wins: required forms,
// then credits, then capacity. A full class never rejects; it waitlists.
func Evaluate(m *models.Member, c *models.ClassTemplate, held int, requiredForms []string) Decision {
	if !m.HasCompletedForms(requiredForms) {
		return Decision{Outcome: OutcomeRejected, Reason: models.ErrFormsIncomplete}
	}
	if m.CreditBalance < c.CreditsRequired {
		return Decision{Outcome: OutcomeRejected, Reason: models.ErrInsufficientCredits}
	}
	if held >= c.Capacity {
		return Decision{Outcome: OutcomeWaitlisted}
	}
	return Decision{Outcome: OutcomeConfirmed}
}
