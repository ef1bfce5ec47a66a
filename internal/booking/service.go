// Package booking admits members into class occurrences and manages the
// lifecycle of the resulting reservations.
package booking

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fightflight/backend/internal/models"
	"github.com/fightflight/backend/internal/schedule"
)

// ClassStore is the slice of the class repository bookings need.
type ClassStore interface {
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.ClassTemplate, error)
	// AdjustBookedCount applies delta and never lets the counter drop below zero.
	AdjustBookedCount(ctx context.Context, tx pgx.Tx, id uuid.UUID, delta int) (int, error)
}

// MemberStore locks the member row for the duration of a booking.
type MemberStore interface {
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Member, error)
}

// BookingStore persists reservations.
type BookingStore interface {
	CountHeld(ctx context.Context, tx pgx.Tx, classID uuid.UUID, occurrence time.Time) (int, error)
	CreateTx(ctx context.Context, tx pgx.Tx, b *models.Booking) error
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Booking, error)
	SetStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status models.BookingStatus) error
	ListByMemberID(ctx context.Context, memberID uuid.UUID) ([]*models.Booking, error)
}

// Ledger is the credit ledger as seen by bookings. *ledger.Service satisfies it.
type Ledger interface {
	Debit(ctx context.Context, tx pgx.Tx, memberID uuid.UUID, amount int, description string) (*models.CreditTransaction, error)
	Refund(ctx context.Context, tx pgx.Tx, memberID uuid.UUID, amount int, description string) (*models.CreditTransaction, error)
}

// TxBeginner starts database transactions. *pgxpool.Pool satisfies it.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Options tunes booking policy.
type Options struct {
	// RefundOnCancel returns the credits of a confirmed booking when it is
	// cancelled.
	RefundOnCancel bool
	// RequiredForms gates booking; defaults to models.RequiredFormIDs().
	RequiredForms []string
	// Location is the studio's time zone. Weekdays and wall-clock times are
	// read in it.
	Location *time.Location
}

// Request asks for a seat in one occurrence of a class. A nil OccurrenceDate
// books the next occurrence. A non-zero CreditsRequired must match the class.
type Request struct {
	MemberID        uuid.UUID
	ClassTemplateID uuid.UUID
	OccurrenceDate  *time.Time
	CreditsRequired int
}

// Filter selects bookings for listing.
type Filter string

const (
	FilterAll      Filter = "all"
	FilterUpcoming Filter = "upcoming"
	FilterPast     Filter = "past"
)

// ParseFilter maps a query value to a Filter; empty means all.
func ParseFilter(s string) (Filter, error) {
	switch Filter(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterUpcoming, FilterPast:
		return Filter(s), nil
	}
	return "", fmt.Errorf("%w: type must be all, upcoming or past", models.ErrValidation)
}

// Listed is a booking annotated for display.
type Listed struct {
	*models.Booking
	Past      bool `json:"past"`
	DaysUntil int  `json:"daysUntil"`
}

type Service struct {
	pool     TxBeginner
	classes  ClassStore
	members  MemberStore
	bookings BookingStore
	ledger   Ledger
	opts     Options
	now      func() time.Time
	log      *slog.Logger
	tracer   trace.Tracer
}

func NewService(pool TxBeginner, classes ClassStore, members MemberStore, bookings BookingStore, ledger Ledger, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.RequiredForms == nil {
		opts.RequiredForms = models.RequiredFormIDs()
	}
	return &Service{
		pool:     pool,
		classes:  classes,
		members:  members,
		bookings: bookings,
		ledger:   ledger,
		opts:     opts,
		now:      time.Now,
		log:      logger,
		tracer:   otel.Tracer("fightflight/booking"),
	}
}

// SetClock overrides the time source. Intended for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

func (s *Service) localNow() time.Time { return s.now().In(s.opts.Location) }

// Book admits the member into the class occurrence. Everything happens in one
// transaction holding row locks on the class and the member, so the capacity
// count, the debit, the insert and the counter update land together or not at
// all. Rejections come back as models.ErrFormsIncomplete or
// models.ErrInsufficientCredits; a full class yields a waitlisted booking.
func (s *Service) Book(ctx context.Context, req Request) (*models.Booking, error) {
	ctx, span := s.tracer.Start(ctx, "booking.book", trace.WithAttributes(
		attribute.String("member.id", req.MemberID.String()),
		attribute.String("class.id", req.ClassTemplateID.String()),
	))
	defer span.End()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	class, err := s.classes.GetByIDForUpdate(ctx, tx, req.ClassTemplateID)
	if err != nil {
		return nil, fmt.Errorf("get class %s: %w", req.ClassTemplateID, err)
	}
	if !class.Active {
		return nil, fmt.Errorf("class %s is no longer offered: %w", class.ID, models.ErrNotFound)
	}
	if req.CreditsRequired != 0 && req.CreditsRequired != class.CreditsRequired {
		return nil, fmt.Errorf("%w: class costs %d credits, request says %d", models.ErrValidation, class.CreditsRequired, req.CreditsRequired)
	}
	member, err := s.members.GetByIDForUpdate(ctx, tx, req.MemberID)
	if err != nil {
		return nil, fmt.Errorf("get member %s: %w", req.MemberID, err)
	}

	occurrence, wc, err := s.occurrenceFor(class, req.OccurrenceDate)
	if err != nil {
		return nil, err
	}

	held, err := s.bookings.CountHeld(ctx, tx, class.ID, occurrence)
	if err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}

	decision := Evaluate(member, class, held, s.opts.RequiredForms)
	span.SetAttributes(attribute.String("booking.outcome", decision.Outcome.String()), attribute.Int("class.held", held))
	if decision.Outcome == OutcomeRejected {
		return nil, fmt.Errorf("book %s: %w", class.Name, decision.Reason)
	}

	if decision.Outcome == OutcomeConfirmed {
		if _, err := s.ledger.Debit(ctx, tx, member.ID, class.CreditsRequired, "Class Booking: "+class.Name); err != nil {
			return nil, err
		}
	}

	b := &models.Booking{
		ID:              uuid.New(),
		MemberID:        member.ID,
		ClassTemplateID: class.ID,
		ClassName:       class.Name,
		ClassType:       class.Type,
		Instructor:      class.Instructor,
		OccurrenceDate:  occurrence,
		WallClockTime:   wc.String(),
		CreditsUsed:     class.CreditsRequired,
		Status:          decision.Status(),
	}
	if err := s.bookings.CreateTx(ctx, tx, b); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	if decision.Outcome == OutcomeConfirmed {
		if _, err := s.classes.AdjustBookedCount(ctx, tx, class.ID, 1); err != nil {
			return nil, fmt.Errorf("increment booked count: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit booking: %w", err)
	}
	s.log.Info("booking created",
		"booking_id", b.ID, "member_id", member.ID, "class_id", class.ID,
		"occurrence", occurrence.Format(schedule.DateLayout), "status", b.Status)
	return b, nil
}

// occurrenceFor resolves the next occurrence when requested is nil and
// otherwise checks that the requested date is a future occurrence of the class.
func (s *Service) occurrenceFor(class *models.ClassTemplate, requested *time.Time) (time.Time, schedule.WallClock, error) {
	wc, err := schedule.ParseWallClock(class.WallClockTime)
	if err != nil {
		return time.Time{}, wc, err
	}
	now := s.localNow()
	if requested == nil {
		return schedule.ResolveNextOccurrence(class.Weekday, wc, now), wc, nil
	}
	date := schedule.Midnight(*requested, s.opts.Location)
	if date.Weekday() != class.Weekday {
		return time.Time{}, wc, fmt.Errorf("%w: %s is a %s, class runs on %s",
			models.ErrValidation, date.Format(schedule.DateLayout), date.Weekday(), class.Weekday)
	}
	if schedule.HasSlotPassed(date, wc, now) {
		return time.Time{}, wc, fmt.Errorf("%w: the %s occurrence has already started", models.ErrValidation, date.Format(schedule.DateLayout))
	}
	return date, wc, nil
}

// Cancel moves a booking to cancelled. Only the owner may cancel. A booking
// that was confirmed gives its seat back and, when refunds are enabled, its
// credits. Cancelling twice fails with models.ErrBookingCancelled.
func (s *Service) Cancel(ctx context.Context, bookingID, memberID uuid.UUID) (*models.Booking, error) {
	ctx, span := s.tracer.Start(ctx, "booking.cancel", trace.WithAttributes(
		attribute.String("booking.id", bookingID.String()),
		attribute.String("member.id", memberID.String()),
	))
	defer span.End()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	b, err := s.bookings.GetByIDForUpdate(ctx, tx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", bookingID, err)
	}
	if b.MemberID != memberID {
		return nil, fmt.Errorf("booking %s belongs to another member: %w", bookingID, models.ErrForbidden)
	}
	if b.Status == models.BookingStatusCancelled {
		return nil, fmt.Errorf("booking %s: %w", bookingID, models.ErrBookingCancelled)
	}
	wasConfirmed := b.Status == models.BookingStatusConfirmed

	// Same lock order as Book: class, then member.
	if wasConfirmed {
		if _, err := s.classes.GetByIDForUpdate(ctx, tx, b.ClassTemplateID); err != nil {
			return nil, fmt.Errorf("lock class %s: %w", b.ClassTemplateID, err)
		}
		if _, err := s.members.GetByIDForUpdate(ctx, tx, memberID); err != nil {
			return nil, fmt.Errorf("lock member %s: %w", memberID, err)
		}
	}

	if err := s.bookings.SetStatusTx(ctx, tx, b.ID, models.BookingStatusCancelled); err != nil {
		return nil, fmt.Errorf("cancel booking: %w", err)
	}
	refunded := false
	if wasConfirmed {
		if s.opts.RefundOnCancel && b.CreditsUsed > 0 {
			if _, err := s.ledger.Refund(ctx, tx, memberID, b.CreditsUsed, "Booking Cancelled: "+b.ClassName); err != nil {
				return nil, err
			}
			refunded = true
		}
		if _, err := s.classes.AdjustBookedCount(ctx, tx, b.ClassTemplateID, -1); err != nil {
			return nil, fmt.Errorf("decrement booked count: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit cancel: %w", err)
	}
	b.Status = models.BookingStatusCancelled
	s.log.Info("booking cancelled", "booking_id", b.ID, "member_id", memberID, "refunded", refunded)
	return b, nil
}

// Reschedule is not offered yet.
func (s *Service) Reschedule(_ context.Context, _, _ uuid.UUID, _ time.Time) error {
	return models.ErrRescheduleUnsupported
}

// List returns the member's bookings. Upcoming bookings are the ones not yet
// started and not cancelled, soonest first. Past bookings are the ones already
// started or cancelled, most recent first.
func (s *Service) List(ctx context.Context, memberID uuid.UUID, filter Filter) ([]Listed, error) {
	all, err := s.bookings.ListByMemberID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	now := s.localNow()
	out := make([]Listed, 0, len(all))
	for _, b := range all {
		start := slotStart(b, s.opts.Location)
		item := Listed{
			Booking:   b,
			Past:      now.After(start),
			DaysUntil: schedule.DaysBetween(now, start),
		}
		cancelled := b.Status == models.BookingStatusCancelled
		switch filter {
		case FilterUpcoming:
			if item.Past || cancelled {
				continue
			}
		case FilterPast:
			if !item.Past && !cancelled {
				continue
			}
		}
		out = append(out, item)
	}
	ascending := filter == FilterUpcoming
	sort.SliceStable(out, func(i, j int) bool {
		a, b := slotStart(out[i].Booking, s.opts.Location), slotStart(out[j].Booking, s.opts.Location)
		if ascending {
			return a.Before(b)
		}
		return a.After(b)
	})
	return out, nil
}

func slotStart(b *models.Booking, loc *time.Location) time.Time {
	date := schedule.Midnight(b.OccurrenceDate, loc)
	wc, err := schedule.ParseWallClock(b.WallClockTime)
	if err != nil {
		return date
	}
	return schedule.SlotStart(date, wc)
}
