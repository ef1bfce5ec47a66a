package auth

import (
	"context"

	"github.com/fightflight/backend/internal/models"
	"github.com/fightflight/backend/internal/repository"
)

// Repository is the member storage the auth service needs.
type Repository interface {
	Create(ctx context.Context, m *models.Member) error
	GetByEmail(ctx context.Context, email string) (*models.Member, error)
}

var _ Repository = (*repository.MemberRepo)(nil)
