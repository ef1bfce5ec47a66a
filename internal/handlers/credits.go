package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fightflight/backend/internal/ledger"
	"github.com/fightflight/backend/internal/models"
	"github.com/fightflight/backend/internal/services"
)

// CreditService is the ledger as used over HTTP. *ledger.Service satisfies it.
type CreditService interface {
	Summary(ctx context.Context, memberID uuid.UUID, days int) (*ledger.Summary, error)
	History(ctx context.Context, memberID uuid.UUID, limit int) ([]*models.CreditTransaction, error)
	Purchase(ctx context.Context, memberID uuid.UUID, pkg models.CreditPackage, orderID, paymentID string) (*models.CreditTransaction, error)
	Adjust(ctx context.Context, memberID uuid.UUID, amount int, reason string) (*models.CreditTransaction, error)
}

// CreditHandler serves the member credit endpoints.
type CreditHandler struct {
	Ledger    CreditService
	Validator *services.Validator
	Logger    *slog.Logger
}

type expiringLotResponse struct {
	Amount     int    `json:"amount"`
	ExpiryDate string `json:"expiryDate"`
	DaysLeft   int    `json:"daysLeft"`
}

type creditSummaryResponse struct {
	Balance      int                   `json:"balance"`
	ExpiringLots []expiringLotResponse `json:"expiringLots"`
}

type transactionResponse struct {
	ID               uuid.UUID `json:"id"`
	Direction        string    `json:"direction"`
	Amount           int       `json:"amount"`
	Description      string    `json:"description"`
	ResultingBalance int       `json:"resultingBalance"`
	ExpiryDate       *string   `json:"expiryDate,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

type packageResponse struct {
	ID           string          `json:"id"`
	Credits      int             `json:"credits"`
	Price        decimal.Decimal `json:"price"`
	PerClass     decimal.Decimal `json:"perClass"`
	Popular      bool            `json:"popular"`
	ValidityDays int             `json:"validityDays"`
}

type purchaseRequest struct {
	PackageID string `json:"packageId"`
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
}

func toTransactionResponse(t *models.CreditTransaction) transactionResponse {
	return transactionResponse{
		ID:               t.ID,
		Direction:        t.Direction,
		Amount:           t.Amount,
		Description:      t.Description,
		ResultingBalance: t.ResultingBalance,
		ExpiryDate:       formatDatePtr(t.ExpiryDate),
		CreatedAt:        t.CreatedAt,
	}
}

// intQuery reads a positive integer query parameter, falling back to def.
func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", models.ErrValidation, name)
	}
	return n, nil
}

// GetCredits handles GET /api/v1/credits?days=30.
func (h *CreditHandler) GetCredits(w http.ResponseWriter, r *http.Request) {
	memberID, err := actingMember(r, r.URL.Query().Get("memberId"))
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	days, err := intQuery(r, "days", ledger.DefaultExpiryWindowDays)
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	sum, err := h.Ledger.Summary(r.Context(), memberID, days)
	if err != nil {
		WriteError(w, h.Logger, err, "member_id", memberID)
		return
	}
	resp := creditSummaryResponse{Balance: sum.Balance, ExpiringLots: make([]expiringLotResponse, 0, len(sum.ExpiringLots))}
	for _, l := range sum.ExpiringLots {
		resp.ExpiringLots = append(resp.ExpiringLots, expiringLotResponse{
			Amount:     l.Amount,
			ExpiryDate: formatDate(l.ExpiryDate),
			DaysLeft:   l.DaysLeft,
		})
	}
	WriteJSON(w, http.StatusOK, resp)
}

// GetHistory handles GET /api/v1/credits/history?limit=20.
func (h *CreditHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	memberID, err := actingMember(r, r.URL.Query().Get("memberId"))
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	limit, err := intQuery(r, "limit", 0)
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	txs, err := h.Ledger.History(r.Context(), memberID, limit)
	if err != nil {
		WriteError(w, h.Logger, err, "member_id", memberID)
		return
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"transactions": out})
}

// ListPackages handles GET /api/v1/credit-packages.
func (h *CreditHandler) ListPackages(w http.ResponseWriter, _ *http.Request) {
	out := make([]packageResponse, 0, len(models.CreditPackages))
	for _, p := range models.CreditPackages {
		out = append(out, packageResponse{
			ID:           p.ID,
			Credits:      p.Credits,
			Price:        p.Price,
			PerClass:     p.PerClass(),
			Popular:      p.Popular,
			ValidityDays: p.ValidityDays,
		})
	}
	WriteJSON(w, http.StatusOK, map[string]any{"packages": out})
}

// Purchase handles POST /api/v1/credits/purchase. Payment verification is
// stubbed: the order and payment ids are recorded as given.
func (h *CreditHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if !Decode(w, r, h.Validator, services.SchemaPurchase, &req, h.Logger) {
		return
	}
	memberID, err := actingMember(r, "")
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	pkg, ok := models.FindCreditPackage(req.PackageID)
	if !ok {
		WriteError(w, h.Logger, fmt.Errorf("%w: unknown package %q", models.ErrValidation, req.PackageID))
		return
	}
	t, err := h.Ledger.Purchase(r.Context(), memberID, pkg, req.OrderID, req.PaymentID)
	if err != nil {
		WriteError(w, h.Logger, err, "member_id", memberID, "package_id", pkg.ID)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{
		"message":     fmt.Sprintf("Purchased %d credits", pkg.Credits),
		"balance":     t.ResultingBalance,
		"transaction": toTransactionResponse(t),
	})
}
