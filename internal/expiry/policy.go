// Package expiry implements the admin override that freezes a member's credit
// lot expiry, optionally until a resume date.
package expiry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fightflight/backend/internal/models"
	"github.com/fightflight/backend/internal/schedule"
)

// MemberStore is the slice of the member repository the policy needs.
type MemberStore interface {
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Member, error)
	SetExpiryPause(ctx context.Context, tx pgx.Tx, id uuid.UUID, paused bool, until *time.Time) error
}

// TxBeginner starts database transactions. *pgxpool.Pool satisfies it.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// InsertResumeTxFunc enqueues a ResumeArgs job within the given transaction.
// Provided by main as a closure over river.Client.InsertTx.
type InsertResumeTxFunc func(ctx context.Context, tx pgx.Tx, args ResumeArgs) error

type Service struct {
	pool         TxBeginner
	members      MemberStore
	insertResume InsertResumeTxFunc
	loc          *time.Location
	now          func() time.Time
	log          *slog.Logger
}

func NewService(pool TxBeginner, members MemberStore, insertResume InsertResumeTxFunc, loc *time.Location, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		pool:         pool,
		members:      members,
		insertResume: insertResume,
		loc:          loc,
		now:          time.Now,
		log:          logger,
	}
}

// SetClock overrides the time source. Intended for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Pause freezes expiry for the member. With a nil until the pause lasts until
// Resume is called; otherwise it lapses at the start of that day and a job is
// scheduled to clear it. until must be a future day.
func (s *Service) Pause(ctx context.Context, memberID uuid.UUID, until *time.Time) (*models.Member, error) {
	var resumeAt *time.Time
	if until != nil {
		day := schedule.Midnight(*until, s.loc)
		if !day.After(s.now().In(s.loc)) {
			return nil, fmt.Errorf("%w: untilDate must be in the future", models.ErrValidation)
		}
		resumeAt = &day
	}

	m, err := s.apply(ctx, memberID, true, resumeAt, func(ctx context.Context, tx pgx.Tx) error {
		if resumeAt == nil || s.insertResume == nil {
			return nil
		}
		if err := s.insertResume(ctx, tx, ResumeArgs{MemberID: memberID, PausedUntil: *resumeAt}); err != nil {
			return fmt.Errorf("schedule resume: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("credit expiry paused", "member_id", memberID, "until", resumeAt)
	return m, nil
}

// Resume clears any pause on the member.
func (s *Service) Resume(ctx context.Context, memberID uuid.UUID) (*models.Member, error) {
	m, err := s.apply(ctx, memberID, false, nil, nil)
	if err != nil {
		return nil, err
	}
	s.log.Info("credit expiry resumed", "member_id", memberID)
	return m, nil
}

// ResumeIfDue clears the pause scheduled to end at pausedUntil. It does
// nothing when the member was resumed already or paused again with a
// different end date.
func (s *Service) ResumeIfDue(ctx context.Context, memberID uuid.UUID, pausedUntil time.Time) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	m, err := s.members.GetByIDForUpdate(ctx, tx, memberID)
	if err != nil {
		return false, fmt.Errorf("lock member %s: %w", memberID, err)
	}
	if !m.ExpiryPaused || m.PausedUntil == nil || !m.PausedUntil.Equal(pausedUntil) {
		return false, nil
	}
	if err := s.members.SetExpiryPause(ctx, tx, memberID, false, nil); err != nil {
		return false, fmt.Errorf("clear pause: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	s.log.Info("credit expiry auto-resumed", "member_id", memberID)
	return true, nil
}

func (s *Service) apply(ctx context.Context, memberID uuid.UUID, paused bool, until *time.Time, also func(context.Context, pgx.Tx) error) (*models.Member, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	m, err := s.members.GetByIDForUpdate(ctx, tx, memberID)
	if err != nil {
		return nil, fmt.Errorf("lock member %s: %w", memberID, err)
	}
	if err := s.members.SetExpiryPause(ctx, tx, memberID, paused, until); err != nil {
		return nil, fmt.Errorf("set expiry pause: %w", err)
	}
	if also != nil {
		if err := also(ctx, tx); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	m.ExpiryPaused, m.PausedUntil = paused, until
	return m, nil
}
