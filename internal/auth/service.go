package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fightflight/backend/internal/models"
)

// TokenTTL is how long an issued token stays valid.
const TokenTTL = 24 * time.Hour

var errInvalidCredentials = fmt.Errorf("%w: invalid credentials", models.ErrUnauthorized)

type Service interface {
	Register(ctx context.Context, email, password, name string) (*models.Member, error)
	Login(ctx context.Context, email, password string) (string, error)
	ValidateToken(ctx context.Context, token string) (uuid.UUID, string, error)
}

type service struct {
	repo   Repository
	secret []byte
	cost   int
	now    func() time.Time
}

// NewService signs tokens with secret (HS256).
func NewService(repo Repository, secret string) *service {
	return &service{repo: repo, secret: []byte(secret), cost: bcrypt.DefaultCost, now: time.Now}
}

// Ensure service implements Service at compile time.
var _ Service = (*service)(nil)

type claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Register creates a member account with an empty balance. Every self-service
// account gets the member role; admins are promoted out of band.
func (s *service) Register(ctx context.Context, email, password, name string) (*models.Member, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" || password == "" || name == "" {
		return nil, fmt.Errorf("%w: email, password and name are required", models.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}
	m := &models.Member{
		ID:           uuid.New(),
		Email:        strings.ToLower(email),
		Name:         name,
		PasswordHash: string(hash),
		Role:         models.RoleMember,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, fmt.Errorf("%w: email already registered", models.ErrConflict)
		}
		return nil, err
	}
	return m, nil
}

func (s *service) Login(ctx context.Context, email, password string) (string, error) {
	m, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", errInvalidCredentials
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(password)); err != nil {
		return "", errInvalidCredentials
	}
	return s.issueToken(m.ID, m.Role)
}

func (s *service) issueToken(memberID uuid.UUID, role string) (string, error) {
	now := s.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   memberID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: role,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return tok.SignedString(s.secret)
}

// ValidateToken returns the member id and role carried by a valid token.
// Any failure is reported as models.ErrUnauthorized.
func (s *service) ValidateToken(_ context.Context, token string) (uuid.UUID, string, error) {
	tok, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("%w: %v", models.ErrUnauthorized, err)
	}
	c, ok := tok.Claims.(*claims)
	if !ok || !tok.Valid {
		return uuid.Nil, "", fmt.Errorf("%w: invalid token", models.ErrUnauthorized)
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("%w: bad subject", models.ErrUnauthorized)
	}
	if c.Role != models.RoleMember && c.Role != models.RoleAdmin {
		return uuid.Nil, "", fmt.Errorf("%w: unknown role", models.ErrUnauthorized)
	}
	return id, c.Role, nil
}
