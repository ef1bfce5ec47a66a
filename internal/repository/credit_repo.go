package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fightflight/backend/internal/models"
)

type CreditRepo struct {
	pool *pgxpool.Pool
}

func NewCreditRepo(pool *pgxpool.Pool) *CreditRepo {
	return &CreditRepo{pool: pool}
}

// CreateTx appends a credit transaction inside the given transaction.
func (r *CreditRepo) CreateTx(ctx context.Context, tx pgx.Tx, c *models.CreditTransaction) error {
	return tx.QueryRow(ctx, `
		INSERT INTO credit_transactions (id, member_id, direction, amount, description, resulting_balance, expiry_date, order_id, payment_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`, c.ID, c.MemberID, c.Direction, c.Amount, c.Description, c.ResultingBalance,
		nullableDate(c.ExpiryDate), c.OrderID, c.PaymentID).Scan(&c.CreatedAt)
}

// ListByMemberID returns up to limit transactions, newest first.
func (r *CreditRepo) ListByMemberID(ctx context.Context, memberID uuid.UUID, limit int) ([]*models.CreditTransaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, member_id, direction, amount, description, resulting_balance, expiry_date, order_id, payment_id, created_at
		FROM credit_transactions WHERE member_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, memberID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.CreditTransaction
	for rows.Next() {
		var c models.CreditTransaction
		if err := rows.Scan(&c.ID, &c.MemberID, &c.Direction, &c.Amount, &c.Description, &c.ResultingBalance,
			&c.ExpiryDate, &c.OrderID, &c.PaymentID, &c.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}
