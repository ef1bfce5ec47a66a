package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/fightflight/backend/internal/models"
)

// FormStore records completed intake forms. *repository.MemberRepo satisfies it.
type FormStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
	AddCompletedForm(ctx context.Context, id uuid.UUID, formID string) (*models.Member, error)
}

type FormHandler struct {
	Members FormStore
	Logger  *slog.Logger
}

type formResponse struct {
	models.Form
	Completed bool `json:"completed"`
}

type formsResponse struct {
	Forms                     []formResponse `json:"forms"`
	AllRequiredFormsCompleted bool           `json:"allRequiredFormsCompleted"`
}

func toFormsResponse(m *models.Member) formsResponse {
	done := make(map[string]bool, len(m.FormsCompleted))
	for _, f := range m.FormsCompleted {
		done[f] = true
	}
	out := formsResponse{
		Forms:                     make([]formResponse, 0, len(models.Forms)),
		AllRequiredFormsCompleted: m.HasCompletedForms(models.RequiredFormIDs()),
	}
	for _, f := range models.Forms {
		out.Forms = append(out.Forms, formResponse{Form: f, Completed: done[f.ID]})
	}
	return out
}

// ListForms handles GET /api/v1/forms.
func (h *FormHandler) ListForms(w http.ResponseWriter, r *http.Request) {
	memberID, err := actingMember(r, "")
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	m, err := h.Members.GetByID(r.Context(), memberID)
	if err != nil {
		WriteError(w, h.Logger, err, "member_id", memberID)
		return
	}
	WriteJSON(w, http.StatusOK, toFormsResponse(m))
}

// SubmitForm handles POST /api/v1/forms/{id}/submit. Field answers are not
// stored; only completion is recorded.
func (h *FormHandler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	memberID, err := actingMember(r, "")
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	form, ok := models.FindForm(r.PathValue("id"))
	if !ok {
		WriteError(w, h.Logger, fmt.Errorf("form %q: %w", r.PathValue("id"), models.ErrNotFound))
		return
	}
	m, err := h.Members.AddCompletedForm(r.Context(), memberID, form.ID)
	if err != nil {
		WriteError(w, h.Logger, err, "member_id", memberID, "form_id", form.ID)
		return
	}
	logOrDefault(h.Logger).Info("form submitted", "member_id", memberID, "form_id", form.ID)
	WriteJSON(w, http.StatusOK, toFormsResponse(m))
}
