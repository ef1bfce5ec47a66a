// Package ledger keeps a member's credit balance and its audit trail. The
// balance on the member row is authoritative; credit lots only track expiry
// and transactions are history for display.
package ledger

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

// MemberStore is the slice of the member repository the ledger needs.
type MemberStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Member, error)
	// DeductCredits must refuse to go below zero and report that as
	// models.ErrInsufficientCredits.
	DeductCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int) (newBalance int, err error)
	AddCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int) (newBalance int, err error)
	AppendLot(ctx context.Context, tx pgx.Tx, id uuid.UUID, lot models.CreditLot) error
}

// TransactionStore persists the append-only credit history.
type TransactionStore interface {
	CreateTx(ctx context.Context, tx pgx.Tx, t *models.CreditTransaction) error
	ListByMemberID(ctx context.Context, memberID uuid.UUID, limit int) ([]*models.CreditTransaction, error)
}

// TxBeginner starts database transactions. *pgxpool.Pool satisfies it.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ExpiringLot is a credit lot that runs out within the queried window.
type ExpiringLot struct {
	Amount     int       `json:"amount"`
	ExpiryDate time.Time `json:"expiryDate"`
	DaysLeft   int       `json:"daysLeft"`
}

// Summary is the member-facing view of their credits.
type Summary struct {
	Balance      int           `json:"balance"`
	ExpiringLots []ExpiringLot `json:"expiringLots"`
}

// DefaultExpiryWindowDays is how far ahead the credits view looks for lots
// about to expire.
const DefaultExpiryWindowDays = 30

type Service struct {
	pool    TxBeginner
	members MemberStore
	txs     TransactionStore
	loc     *time.Location
	now     func() time.Time
	log     *slog.Logger
	tracer  trace.Tracer
}

// NewService returns a ledger Service. loc is the studio's time zone; lot
// expiry dates are calendar days in it.
func NewService(pool TxBeginner, members MemberStore, txs TransactionStore, loc *time.Location, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		pool:    pool,
		members: members,
		txs:     txs,
		loc:     loc,
		now:     time.Now,
		log:     logger,
		tracer:  otel.Tracer("fightflight/ledger"),
	}
}

// SetClock overrides the time source. Intended for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

func (s *Service) today() time.Time {
	return s.now().In(s.loc)
}

// Balance returns the member's spendable credits.
func (s *Service) Balance(ctx context.Context, memberID uuid.UUID) (int, error) {
	m, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return 0, fmt.Errorf("get member %s: %w", memberID, err)
	}
	return m.CreditBalance, nil
}

// Debit removes amount credits inside the caller's transaction and records a
// debit entry. The balance is left untouched when it would go negative.
func (s *Service) Debit(ctx context.Context, tx pgx.Tx, memberID uuid.UUID, amount int, description string) (*models.CreditTransaction, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.debit", trace.WithAttributes(
		attribute.String("member.id", memberID.String()),
		attribute.Int("credits", amount),
	))
	defer span.End()

	if amount <= 0 {
		return nil, fmt.Errorf("%w: debit amount must be positive, got %d", models.ErrValidation, amount)
	}
	newBalance, err := s.members.DeductCredits(ctx, tx, memberID, amount)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("debit %d credits: %w", amount, err)
	}
	entry := &models.CreditTransaction{
		ID:               uuid.New(),
		MemberID:         memberID,
		Direction:        models.CreditDirectionDebit,
		Amount:           amount,
		Description:      description,
		ResultingBalance: newBalance,
	}
	if err := s.txs.CreateTx(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("record debit: %w", err)
	}
	return entry, nil
}

// Credit adds amount credits inside the caller's transaction. When expiry is
// set a matching lot is appended for expiry tracking.
func (s *Service) Credit(ctx context.Context, tx pgx.Tx, memberID uuid.UUID, amount int, description string, expiry *time.Time) (*models.CreditTransaction, error) {
	return s.credit(ctx, tx, &models.CreditTransaction{
		MemberID:    memberID,
		Amount:      amount,
		Description: description,
		ExpiryDate:  expiry,
	})
}

// Refund returns credits for a reversed debit. It never recreates the lot the
// credits originally came from.
func (s *Service) Refund(ctx context.Context, tx pgx.Tx, memberID uuid.UUID, amount int, description string) (*models.CreditTransaction, error) {
	return s.Credit(ctx, tx, memberID, amount, description, nil)
}

func (s *Service) credit(ctx context.Context, tx pgx.Tx, entry *models.CreditTransaction) (*models.CreditTransaction, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.credit", trace.WithAttributes(
		attribute.String("member.id", entry.MemberID.String()),
		attribute.Int("credits", entry.Amount),
	))
	defer span.End()

	if entry.Amount <= 0 {
		return nil, fmt.Errorf("%w: credit amount must be positive, got %d", models.ErrValidation, entry.Amount)
	}
	newBalance, err := s.members.AddCredits(ctx, tx, entry.MemberID, entry.Amount)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("credit %d credits: %w", entry.Amount, err)
	}
	if entry.ExpiryDate != nil {
		lot := models.CreditLot{Amount: entry.Amount, ExpiryDate: *entry.ExpiryDate}
		if err := s.members.AppendLot(ctx, tx, entry.MemberID, lot); err != nil {
			return nil, fmt.Errorf("append credit lot: %w", err)
		}
	}
	entry.ID = uuid.New()
	entry.Direction = models.CreditDirectionCredit
	entry.ResultingBalance = newBalance
	if err := s.txs.CreateTx(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("record credit: %w", err)
	}
	return entry, nil
}

// Adjust applies a signed admin correction in its own transaction. Negative
// amounts debit and fail without effect if the balance would drop below zero.
func (s *Service) Adjust(ctx context.Context, memberID uuid.UUID, amount int, reason string) (*models.CreditTransaction, error) {
	if amount == 0 {
		return nil, fmt.Errorf("%w: adjustment amount must be non-zero", models.ErrValidation)
	}
	description := "Admin adjustment"
	if reason != "" {
		description += ": " + reason
	}

	var entry *models.CreditTransaction
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := s.members.GetByIDForUpdate(ctx, tx, memberID); err != nil {
			return fmt.Errorf("lock member %s: %w", memberID, err)
		}
		var err error
		if amount < 0 {
			entry, err = s.Debit(ctx, tx, memberID, -amount, description)
		} else {
			entry, err = s.Credit(ctx, tx, memberID, amount, description, nil)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("credits adjusted", "member_id", memberID, "amount", amount, "balance", entry.ResultingBalance)
	return entry, nil
}

// Purchase credits a package to the member with a lot that expires
// ValidityDays from today. Payment has already been taken by the caller.
func (s *Service) Purchase(ctx context.Context, memberID uuid.UUID, pkg models.CreditPackage, orderID, paymentID string) (*models.CreditTransaction, error) {
	if pkg.Credits <= 0 {
		return nil, fmt.Errorf("%w: package %q has no credits", models.ErrValidation, pkg.ID)
	}
	today := schedule.Midnight(s.today(), s.loc)
	expiry := today.AddDate(0, 0, pkg.ValidityDays)

	var entry *models.CreditTransaction
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := s.members.GetByIDForUpdate(ctx, tx, memberID); err != nil {
			return fmt.Errorf("lock member %s: %w", memberID, err)
		}
		var err error
		entry, err = s.credit(ctx, tx, &models.CreditTransaction{
			MemberID:    memberID,
			Amount:      pkg.Credits,
			Description: fmt.Sprintf("Package Purchase: %d Credits", pkg.Credits),
			ExpiryDate:  &expiry,
			OrderID:     orderID,
			PaymentID:   paymentID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("package purchased", "member_id", memberID, "package", pkg.ID, "order_id", orderID)
	return entry, nil
}

// Summary returns the balance together with lots expiring within days.
func (s *Service) Summary(ctx context.Context, memberID uuid.UUID, days int) (*Summary, error) {
	m, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("get member %s: %w", memberID, err)
	}
	return &Summary{
		Balance:      m.CreditBalance,
		ExpiringLots: ExpiringWithin(m, days, s.today()),
	}, nil
}

// History lists the member's credit transactions, newest first.
func (s *Service) History(ctx context.Context, memberID uuid.UUID, limit int) ([]*models.CreditTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	list, err := s.txs.ListByMemberID(ctx, memberID, limit)
	if err != nil {
		return nil, fmt.Errorf("list credit history: %w", err)
	}
	return list, nil
}

func (s *Service) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ExpiringWithin returns the member's lots whose expiry day falls between today
// and today+days inclusive, soonest first. Lots that already expired are left
// out. While an expiry pause is in effect nothing is reported.
func ExpiringWithin(m *models.Member, days int, now time.Time) []ExpiringLot {
	out := []ExpiringLot{}
	if m.ExpiryPausedAt(now) || days < 0 {
		return out
	}
	for _, lot := range m.CreditLots {
		left := schedule.DaysBetween(now, lot.ExpiryDate.In(now.Location()))
		if left < 0 || left > days {
			continue
		}
		out = append(out, ExpiringLot{Amount: lot.Amount, ExpiryDate: lot.ExpiryDate, DaysLeft: left})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExpiryDate.Before(out[j].ExpiryDate)
	})
	return out
}
