// Package dashboard serves the signed-in member's overview.
package dashboard

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fightflight/backend/internal/handlers"
	"github.com/fightflight/backend/internal/ledger"
	"github.com/fightflight/backend/internal/middleware"
	"github.com/fightflight/backend/internal/models"
	"github.com/fightflight/backend/internal/schedule"
)

type MemberReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
}

// AttendanceCounter counts classes a member attended before a moment.
type AttendanceCounter interface {
	CountAttendedByMember(ctx context.Context, memberID uuid.UUID, before time.Time) (int, error)
}

type Handler struct {
	members    MemberReader
	attendance AttendanceCounter
	loc        *time.Location
	now        func() time.Time
	log        *slog.Logger
}

func NewHandler(members MemberReader, attendance AttendanceCounter, loc *time.Location, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{members: members, attendance: attendance, loc: loc, now: time.Now, log: log}
}

type meResponse struct {
	ID                        uuid.UUID `json:"id"`
	Email                     string    `json:"email"`
	Name                      string    `json:"name"`
	Role                      string    `json:"role"`
	Credits                   int       `json:"credits"`
	ExpiringCredits           int       `json:"expiringCredits"`
	NearestExpiry             *string   `json:"nearestExpiry"`
	TotalClasses              int       `json:"totalClasses"`
	FormsCompleted            []string  `json:"formsCompleted"`
	AllRequiredFormsCompleted bool      `json:"allRequiredFormsCompleted"`
	ExpiryPaused              bool      `json:"expiryPaused"`
	MemberSince               time.Time `json:"memberSince"`
}

// GetMe handles GET /api/v1/me.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromCtx(r.Context())
	if !ok {
		handlers.WriteError(w, h.log, models.ErrUnauthorized)
		return
	}
	m, err := h.members.GetByID(r.Context(), id.MemberID)
	if err != nil {
		handlers.WriteError(w, h.log, err, "member_id", id.MemberID)
		return
	}
	now := h.now().In(h.loc)
	attended, err := h.attendance.CountAttendedByMember(r.Context(), m.ID, now)
	if err != nil {
		handlers.WriteError(w, h.log, err, "member_id", m.ID)
		return
	}

	resp := meResponse{
		ID:                        m.ID,
		Email:                     m.Email,
		Name:                      m.Name,
		Role:                      m.Role,
		Credits:                   m.CreditBalance,
		TotalClasses:              attended,
		FormsCompleted:            m.FormsCompleted,
		AllRequiredFormsCompleted: m.HasCompletedForms(models.RequiredFormIDs()),
		ExpiryPaused:              m.ExpiryPausedAt(now),
		MemberSince:               m.CreatedAt,
	}
	if resp.FormsCompleted == nil {
		resp.FormsCompleted = []string{}
	}
	lots := ledger.ExpiringWithin(m, ledger.DefaultExpiryWindowDays, now)
	for _, l := range lots {
		resp.ExpiringCredits += l.Amount
	}
	if len(lots) > 0 {
		d := lots[0].ExpiryDate.Format(schedule.DateLayout)
		resp.NearestExpiry = &d
	}
	handlers.WriteJSON(w, http.StatusOK, resp)
}
