package auth

import (
	"log/slog"
	"net/http"

	"github.com/fightflight/backend/internal/handlers"
	"github.com/fightflight/backend/internal/services"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AccountResponse struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	CreditBalance int    `json:"creditBalance"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type Handler struct {
	svc       Service
	validator *services.Validator
	log       *slog.Logger
}

func NewHandler(svc Service, validator *services.Validator, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, validator: validator, log: log}
}

// Register handles POST /api/v1/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !handlers.Decode(w, r, h.validator, services.SchemaRegister, &req, h.log) {
		return
	}
	m, err := h.svc.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		handlers.WriteError(w, h.log, err, "email", req.Email)
		return
	}
	h.log.Info("member registered", "member_id", m.ID)
	handlers.WriteJSON(w, http.StatusCreated, AccountResponse{
		ID:            m.ID.String(),
		Email:         m.Email,
		Name:          m.Name,
		Role:          m.Role,
		CreditBalance: m.CreditBalance,
	})
}

// Login handles POST /api/v1/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !handlers.Decode(w, r, h.validator, services.SchemaLogin, &req, h.log) {
		return
	}
	token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handlers.WriteError(w, h.log, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, LoginResponse{Token: token})
}
