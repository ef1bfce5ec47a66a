package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fightflight/backend/internal/models"
)

type ClassRepo struct {
	pool *pgxpool.Pool
}

func NewClassRepo(pool *pgxpool.Pool) *ClassRepo {
	return &ClassRepo{pool: pool}
}

const classColumns = `id, name, type, instructor, level, description, weekday, wall_clock_time, duration_minutes, capacity, booked_count, credits_required, active, created_at, updated_at`

func scanClass(row pgx.Row) (*models.ClassTemplate, error) {
	var c models.ClassTemplate
	var weekday int16
	err := row.Scan(&c.ID, &c.Name, &c.Type, &c.Instructor, &c.Level, &c.Description, &weekday, &c.WallClockTime,
		&c.DurationMinutes, &c.Capacity, &c.BookedCount, &c.CreditsRequired, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Weekday = time.Weekday(weekday)
	return &c, nil
}

func (r *ClassRepo) Create(ctx context.Context, c *models.ClassTemplate) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO class_templates (id, name, type, instructor, level, description, weekday, wall_clock_time, duration_minutes, capacity, booked_count, credits_required, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`, c.ID, c.Name, c.Type, c.Instructor, c.Level, c.Description, int16(c.Weekday), c.WallClockTime,
		c.DurationMinutes, c.Capacity, c.BookedCount, c.CreditsRequired, c.Active).Scan(&c.CreatedAt, &c.UpdatedAt)
	return wrap(err, "class", c.ID)
}

func (r *ClassRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ClassTemplate, error) {
	c, err := scanClass(r.pool.QueryRow(ctx, `SELECT `+classColumns+` FROM class_templates WHERE id = $1`, id))
	return c, wrap(err, "class", id)
}

// GetByIDForUpdate locks the template row, serialising bookings per class.
func (r *ClassRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.ClassTemplate, error) {
	c, err := scanClass(tx.QueryRow(ctx, `SELECT `+classColumns+` FROM class_templates WHERE id = $1 FOR UPDATE`, id))
	return c, wrap(err, "class", id)
}

// Update writes every editable column. booked_count is owned by bookings and
// left alone.
func (r *ClassRepo) Update(ctx context.Context, c *models.ClassTemplate) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE class_templates SET name = $2, type = $3, instructor = $4, level = $5, description = $6, weekday = $7,
			wall_clock_time = $8, duration_minutes = $9, capacity = $10, credits_required = $11, active = $12, updated_at = now()
		WHERE id = $1
		RETURNING booked_count, updated_at
	`, c.ID, c.Name, c.Type, c.Instructor, c.Level, c.Description, int16(c.Weekday), c.WallClockTime,
		c.DurationMinutes, c.Capacity, c.CreditsRequired, c.Active).Scan(&c.BookedCount, &c.UpdatedAt)
	return wrap(err, "class", c.ID)
}

func (r *ClassRepo) List(ctx context.Context, activeOnly bool) ([]*models.ClassTemplate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+classColumns+` FROM class_templates
		WHERE active OR NOT $1
		ORDER BY weekday, created_at
	`, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.ClassTemplate
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// AdjustBookedCount applies delta to the counter, flooring it at zero, and
// returns the new value.
func (r *ClassRepo) AdjustBookedCount(ctx context.Context, tx pgx.Tx, id uuid.UUID, delta int) (int, error) {
	var n int
	err := tx.QueryRow(ctx, `
		UPDATE class_templates SET booked_count = GREATEST(booked_count + $1, 0), updated_at = now()
		WHERE id = $2
		RETURNING booked_count
	`, delta, id).Scan(&n)
	return n, wrap(err, "class", id)
}
