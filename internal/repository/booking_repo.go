package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fightflight/backend/internal/models"
)

type BookingRepo struct {
	pool *pgxpool.Pool
}

func NewBookingRepo(pool *pgxpool.Pool) *BookingRepo {
	return &BookingRepo{pool: pool}
}

const bookingColumns = `id, member_id, class_template_id, class_name, class_type, instructor, occurrence_date, wall_clock_time, credits_used, status, created_at, updated_at`

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(&b.ID, &b.MemberID, &b.ClassTemplateID, &b.ClassName, &b.ClassType, &b.Instructor,
		&b.OccurrenceDate, &b.WallClockTime, &b.CreditsUsed, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateTx inserts a booking inside the given transaction.
func (r *BookingRepo) CreateTx(ctx context.Context, tx pgx.Tx, b *models.Booking) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO bookings (id, member_id, class_template_id, class_name, class_type, instructor, occurrence_date, wall_clock_time, credits_used, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`, b.ID, b.MemberID, b.ClassTemplateID, b.ClassName, b.ClassType, b.Instructor,
		dateParam(b.OccurrenceDate), b.WallClockTime, b.CreditsUsed, b.Status).Scan(&b.CreatedAt, &b.UpdatedAt)
	return wrap(err, "booking", b.ID)
}

// CountHeld counts confirmed and waitlisted bookings for one occurrence.
func (r *BookingRepo) CountHeld(ctx context.Context, tx pgx.Tx, classID uuid.UUID, occurrence time.Time) (int, error) {
	var n int
	err := tx.QueryRow(ctx, `
		SELECT count(*) FROM bookings
		WHERE class_template_id = $1 AND occurrence_date = $2 AND status IN ('confirmed', 'waitlist')
	`, classID, dateParam(occurrence)).Scan(&n)
	return n, err
}

// GetByIDForUpdate locks the booking row. Call within a transaction.
func (r *BookingRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Booking, error) {
	b, err := scanBooking(tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id))
	return b, wrap(err, "booking", id)
}

func (r *BookingRepo) SetStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status models.BookingStatus) error {
	tag, err := tx.Exec(ctx, `UPDATE bookings SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("booking %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// ListByMemberID returns the member's bookings, latest occurrence first.
func (r *BookingRepo) ListByMemberID(ctx context.Context, memberID uuid.UUID) ([]*models.Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE member_id = $1
		ORDER BY occurrence_date DESC, created_at DESC
	`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// CountAttendedByMember counts the member's confirmed bookings whose
// occurrence date is before the given day.
func (r *BookingRepo) CountAttendedByMember(ctx context.Context, memberID uuid.UUID, before time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM bookings
		WHERE member_id = $1 AND status = 'confirmed' AND occurrence_date < $2
	`, memberID, dateParam(before)).Scan(&n)
	return n, err
}
