package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fightflight/backend/internal/models"
)

type MemberRepo struct {
	pool *pgxpool.Pool
}

func NewMemberRepo(pool *pgxpool.Pool) *MemberRepo {
	return &MemberRepo{pool: pool}
}

const memberColumns = `id, email, name, password_hash, role, credit_balance, credit_lots, forms_completed, expiry_paused, paused_until, created_at, updated_at`

func scanMember(row pgx.Row) (*models.Member, error) {
	var m models.Member
	err := row.Scan(&m.ID, &m.Email, &m.Name, &m.PasswordHash, &m.Role, &m.CreditBalance, &m.CreditLots,
		&m.FormsCompleted, &m.ExpiryPaused, &m.PausedUntil, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MemberRepo) Create(ctx context.Context, m *models.Member) error {
	if m.CreditLots == nil {
		m.CreditLots = []models.CreditLot{}
	}
	if m.FormsCompleted == nil {
		m.FormsCompleted = []string{}
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO members (id, email, name, password_hash, role, credit_balance, credit_lots, forms_completed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, m.ID, strings.ToLower(m.Email), m.Name, m.PasswordHash, m.Role, m.CreditBalance, m.CreditLots, m.FormsCompleted).Scan(&m.CreatedAt, &m.UpdatedAt)
	return wrap(err, "member", m.Email)
}

func (r *MemberRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	m, err := scanMember(r.pool.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id))
	return m, wrap(err, "member", id)
}

func (r *MemberRepo) GetByEmail(ctx context.Context, email string) (*models.Member, error) {
	m, err := scanMember(r.pool.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE email = $1`, strings.ToLower(email)))
	return m, wrap(err, "member", email)
}

// GetByIDForUpdate locks the member row. Call within a transaction.
func (r *MemberRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Member, error) {
	m, err := scanMember(tx.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1 FOR UPDATE`, id))
	return m, wrap(err, "member", id)
}

// List returns all members, newest first.
func (r *MemberRepo) List(ctx context.Context) ([]*models.Member, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+memberColumns+` FROM members ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// DeductCredits atomically deducts amount if the balance covers it and
// returns the new balance. A balance that is too low yields
// models.ErrInsufficientCredits and leaves the row untouched.
func (r *MemberRepo) DeductCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int) (newBalance int, err error) {
	err = tx.QueryRow(ctx, `
		UPDATE members SET credit_balance = credit_balance - $1, updated_at = now()
		WHERE id = $2 AND credit_balance >= $1
		RETURNING credit_balance
	`, amount, id).Scan(&newBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM members WHERE id = $1)`, id).Scan(&exists); err != nil {
			return 0, err
		}
		if !exists {
			return 0, fmt.Errorf("member %s: %w", id, models.ErrNotFound)
		}
		return 0, models.ErrInsufficientCredits
	}
	return newBalance, err
}

// AddCredits adds amount to the member and returns the new balance.
func (r *MemberRepo) AddCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int) (newBalance int, err error) {
	err = tx.QueryRow(ctx, `
		UPDATE members SET credit_balance = credit_balance + $1, updated_at = now()
		WHERE id = $2
		RETURNING credit_balance
	`, amount, id).Scan(&newBalance)
	return newBalance, wrap(err, "member", id)
}

// AppendLot adds an expiry lot to the member's credit_lots array.
func (r *MemberRepo) AppendLot(ctx context.Context, tx pgx.Tx, id uuid.UUID, lot models.CreditLot) error {
	encoded, err := json.Marshal([]models.CreditLot{lot})
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE members SET credit_lots = credit_lots || $1::jsonb, updated_at = now()
		WHERE id = $2
	`, string(encoded), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("member %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// SetExpiryPause records the admin expiry override.
func (r *MemberRepo) SetExpiryPause(ctx context.Context, tx pgx.Tx, id uuid.UUID, paused bool, until *time.Time) error {
	tag, err := tx.Exec(ctx, `
		UPDATE members SET expiry_paused = $1, paused_until = $2, updated_at = now()
		WHERE id = $3
	`, paused, until, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("member %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// AddCompletedForm marks a form as completed. Submitting the same form twice
// is a no-op.
func (r *MemberRepo) AddCompletedForm(ctx context.Context, id uuid.UUID, formID string) (*models.Member, error) {
	m, err := scanMember(r.pool.QueryRow(ctx, `
		UPDATE members SET
			forms_completed = CASE WHEN $2 = ANY(forms_completed) THEN forms_completed ELSE array_append(forms_completed, $2) END,
			updated_at = now()
		WHERE id = $1
		RETURNING `+memberColumns, id, formID))
	return m, wrap(err, "member", id)
}
