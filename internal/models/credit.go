package models

import (
	"time"

	"github.com/google/uuid"
)

// Credit transaction directions.
const (
	CreditDirectionCredit = "credit"
	CreditDirectionDebit  = "debit"
)

// CreditTransaction is an append-only audit entry. It is used for history
// display only; the member's balance is the source of truth.
type CreditTransaction struct {
	ID               uuid.UUID  `json:"id"`
	MemberID         uuid.UUID  `json:"memberId"`
	Direction        string     `json:"direction"`
	Amount           int        `json:"amount"`
	Description      string     `json:"description"`
	ResultingBalance int        `json:"resultingBalance"`
	ExpiryDate       *time.Time `json:"expiryDate,omitempty"`
	OrderID          string     `json:"orderId,omitempty"`
	PaymentID        string     `json:"paymentId,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}
