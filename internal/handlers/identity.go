package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fightflight/backend/internal/middleware"
	"github.com/fightflight/backend/internal/models"
	"github.com/fightflight/backend/internal/schedule"
)

// actingMember resolves whose records a request touches. Members always act
// on themselves; an admin may name another member with claimed.
func actingMember(r *http.Request, claimed string) (uuid.UUID, error) {
	id, ok := middleware.IdentityFromCtx(r.Context())
	if !ok {
		return uuid.Nil, models.ErrUnauthorized
	}
	if claimed == "" {
		return id.MemberID, nil
	}
	target, err := uuid.Parse(claimed)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: memberId must be a UUID", models.ErrValidation)
	}
	if target != id.MemberID && !id.IsAdmin() {
		return uuid.Nil, fmt.Errorf("%w: memberId does not match the authenticated member", models.ErrForbidden)
	}
	return target, nil
}

func parseMemberID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: memberId must be a UUID", models.ErrValidation)
	}
	return id, nil
}

func parsePathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", models.ErrValidation, name)
	}
	return id, nil
}

// parseDate reads a YYYY-MM-DD value as midnight in loc. Empty yields nil.
func parseDate(s string, loc *time.Location) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(schedule.DateLayout, s, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: dates use YYYY-MM-DD", models.ErrValidation)
	}
	return &t, nil
}

func formatDate(t time.Time) string { return t.Format(schedule.DateLayout) }

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatDate(*t)
	return &s
}

// formatDayIn renders a TIMESTAMPTZ instant as its calendar day in loc.
// pgx hands those back in the server's zone, which may not be the studio's.
func formatDayIn(t *time.Time, loc *time.Location) *string {
	if t == nil || loc == nil {
		return formatDatePtr(t)
	}
	s := formatDate(t.In(loc))
	return &s
}
