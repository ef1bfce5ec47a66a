package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fightflight/backend/internal/ledger"
	"github.com/fightflight/backend/internal/models"
	"github.com/fightflight/backend/internal/services"
)

// Adjuster applies signed admin credit adjustments. *ledger.Service satisfies it.
type Adjuster interface {
	Adjust(ctx context.Context, memberID uuid.UUID, amount int, reason string) (*models.CreditTransaction, error)
}

// ExpiryPolicy pauses and resumes credit expiry. *expiry.Service satisfies it.
type ExpiryPolicy interface {
	Pause(ctx context.Context, memberID uuid.UUID, until *time.Time) (*models.Member, error)
	Resume(ctx context.Context, memberID uuid.UUID) (*models.Member, error)
}

// MemberLister lists every member. *repository.MemberRepo satisfies it.
type MemberLister interface {
	List(ctx context.Context) ([]*models.Member, error)
}

// AdminHandler serves /api/v1/admin credit and member endpoints. Routes are
// expected behind middleware.RequireAdmin.
type AdminHandler struct {
	Ledger    Adjuster
	Expiry    ExpiryPolicy
	Members   MemberLister
	Validator *services.Validator
	Location  *time.Location
	Logger    *slog.Logger
	Now       func() time.Time
}

type adjustRequest struct {
	MemberID string `json:"memberId"`
	Amount   int    `json:"amount"`
	Reason   string `json:"reason"`
}

type pauseRequest struct {
	MemberID  string `json:"memberId"`
	UntilDate string `json:"untilDate"`
}

type expiryStateResponse struct {
	MemberID     uuid.UUID `json:"memberId"`
	ExpiryPaused bool      `json:"expiryPaused"`
	PausedUntil  *string   `json:"pausedUntil,omitempty"`
}

type adminMemberResponse struct {
	ID                        uuid.UUID `json:"id"`
	Name                      string    `json:"name"`
	Email                     string    `json:"email"`
	Role                      string    `json:"role"`
	CreditBalance             int       `json:"creditBalance"`
	NearestExpiry             *string   `json:"nearestExpiry,omitempty"`
	ExpiringCredits           int       `json:"expiringCredits"`
	ExpiryPaused              bool      `json:"expiryPaused"`
	PausedUntil               *string   `json:"pausedUntil,omitempty"`
	AllRequiredFormsCompleted bool      `json:"allRequiredFormsCompleted"`
	CreatedAt                 time.Time `json:"createdAt"`
}

func (h *AdminHandler) now() time.Time {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	if h.Location != nil {
		return now().In(h.Location)
	}
	return now()
}

// AdjustCredits handles POST /api/v1/admin/credits/adjust. A positive amount
// credits the member; a negative one debits and fails with 400 when the
// balance would go below zero.
func (h *AdminHandler) AdjustCredits(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if !Decode(w, r, h.Validator, services.SchemaCreditAdjust, &req, h.Logger) {
		return
	}
	memberID, err := parseMemberID(req.MemberID)
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	t, err := h.Ledger.Adjust(r.Context(), memberID, req.Amount, req.Reason)
	if err != nil {
		WriteError(w, h.Logger, err, "member_id", memberID)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"balance":     t.ResultingBalance,
		"transaction": toTransactionResponse(t),
	})
}

// PauseExpiry handles POST /api/v1/admin/expiry/pause.
func (h *AdminHandler) PauseExpiry(w http.ResponseWriter, r *http.Request) {
	var req pauseRequest
	if !Decode(w, r, h.Validator, services.SchemaExpiryPause, &req, h.Logger) {
		return
	}
	memberID, err := parseMemberID(req.MemberID)
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	loc := h.Location
	if loc == nil {
		loc = time.UTC
	}
	until, err := parseDate(req.UntilDate, loc)
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	m, err := h.Expiry.Pause(r.Context(), memberID, until)
	if err != nil {
		WriteError(w, h.Logger, err, "member_id", memberID)
		return
	}
	WriteJSON(w, http.StatusOK, expiryStateResponse{MemberID: m.ID, ExpiryPaused: m.ExpiryPaused, PausedUntil: formatDayIn(m.PausedUntil, loc)})
}

// ResumeExpiry handles POST /api/v1/admin/expiry/resume.
func (h *AdminHandler) ResumeExpiry(w http.ResponseWriter, r *http.Request) {
	var req memberRef
	if !Decode(w, r, h.Validator, services.SchemaExpiryPause, &req, h.Logger) {
		return
	}
	memberID, err := parseMemberID(req.MemberID)
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	m, err := h.Expiry.Resume(r.Context(), memberID)
	if err != nil {
		WriteError(w, h.Logger, err, "member_id", memberID)
		return
	}
	WriteJSON(w, http.StatusOK, expiryStateResponse{MemberID: m.ID, ExpiryPaused: m.ExpiryPaused})
}

// ListMembers handles GET /api/v1/admin/members with each member's balance,
// nearest lot expiry and pause state.
func (h *AdminHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.Members.List(r.Context())
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	now := h.now()
	required := models.RequiredFormIDs()
	out := make([]adminMemberResponse, 0, len(members))
	for _, m := range members {
		resp := adminMemberResponse{
			ID:                        m.ID,
			Name:                      m.Name,
			Email:                     m.Email,
			Role:                      m.Role,
			CreditBalance:             m.CreditBalance,
			ExpiryPaused:              m.ExpiryPaused,
			PausedUntil:               formatDayIn(m.PausedUntil, h.Location),
			AllRequiredFormsCompleted: m.HasCompletedForms(required),
			CreatedAt:                 m.CreatedAt,
		}
		lots := ledger.ExpiringWithin(m, ledger.DefaultExpiryWindowDays, now)
		for _, l := range lots {
			resp.ExpiringCredits += l.Amount
		}
		if len(lots) > 0 {
			resp.NearestExpiry = formatDatePtr(&lots[0].ExpiryDate)
		}
		out = append(out, resp)
	}
	WriteJSON(w, http.StatusOK, map[string]any{"members": out})
}
