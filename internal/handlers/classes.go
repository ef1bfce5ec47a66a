package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/fightflight/backend/internal/catalog"
	"github.com/fightflight/backend/internal/models"
	"github.com/fightflight/backend/internal/services"
)

// Catalog is the class template catalog. *catalog.Service satisfies it.
type Catalog interface {
	ListUpcoming(ctx context.Context) ([]*models.ClassTemplate, error)
	List(ctx context.Context, activeOnly bool) ([]*models.ClassTemplate, error)
	Create(ctx context.Context, in catalog.Input) (*models.ClassTemplate, error)
	Update(ctx context.Context, id uuid.UUID, p catalog.Patch) (*models.ClassTemplate, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// ClassHandler serves the public schedule and the admin class catalog.
type ClassHandler struct {
	Catalog   Catalog
	Validator *services.Validator
	Logger    *slog.Logger
}

type classResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	Instructor      string    `json:"instructor"`
	Level           string    `json:"level"`
	Description     string    `json:"description,omitempty"`
	Weekday         string    `json:"weekday"`
	Time            string    `json:"time"`
	DurationMinutes int       `json:"durationMinutes"`
	Capacity        int       `json:"capacity"`
	BookedCount     int       `json:"bookedCount"`
	CreditsRequired int       `json:"creditsRequired"`
	Active          bool      `json:"active"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func toClassResponse(c *models.ClassTemplate) classResponse {
	return classResponse{
		ID:              c.ID,
		Name:            c.Name,
		Type:            c.Type,
		Instructor:      c.Instructor,
		Level:           c.Level,
		Description:     c.Description,
		Weekday:         c.Weekday.String(),
		Time:            c.WallClockTime,
		DurationMinutes: c.DurationMinutes,
		Capacity:        c.Capacity,
		BookedCount:     c.BookedCount,
		CreditsRequired: c.CreditsRequired,
		Active:          c.Active,
		UpdatedAt:       c.UpdatedAt,
	}
}

func writeClasses(w http.ResponseWriter, cs []*models.ClassTemplate) {
	out := make([]classResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, toClassResponse(c))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"classes": out})
}

// ListClasses handles GET /api/v1/classes. By default it lists this week's
// classes that have not started yet; activeOnly=false lists every active
// template regardless of the day.
func (h *ClassHandler) ListClasses(w http.ResponseWriter, r *http.Request) {
	upcoming := true
	if raw := r.URL.Query().Get("activeOnly"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			WriteError(w, h.Logger, models.ErrValidation)
			return
		}
		upcoming = v
	}
	var (
		cs  []*models.ClassTemplate
		err error
	)
	if upcoming {
		cs, err = h.Catalog.ListUpcoming(r.Context())
	} else {
		cs, err = h.Catalog.List(r.Context(), true)
	}
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	writeClasses(w, cs)
}

// AdminListClasses handles GET /api/v1/admin/classes, inactive included.
func (h *ClassHandler) AdminListClasses(w http.ResponseWriter, r *http.Request) {
	cs, err := h.Catalog.List(r.Context(), false)
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	writeClasses(w, cs)
}

// CreateClass handles POST /api/v1/admin/classes.
func (h *ClassHandler) CreateClass(w http.ResponseWriter, r *http.Request) {
	var in catalog.Input
	if !Decode(w, r, h.Validator, services.SchemaClassCreate, &in, h.Logger) {
		return
	}
	c, err := h.Catalog.Create(r.Context(), in)
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toClassResponse(c))
}

// UpdateClass handles PUT /api/v1/admin/classes/{id}.
func (h *ClassHandler) UpdateClass(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(r, "id")
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	var p catalog.Patch
	if !Decode(w, r, h.Validator, services.SchemaClassUpdate, &p, h.Logger) {
		return
	}
	c, err := h.Catalog.Update(r.Context(), id, p)
	if err != nil {
		WriteError(w, h.Logger, err, "class_id", id)
		return
	}
	WriteJSON(w, http.StatusOK, toClassResponse(c))
}

// DeleteClass handles DELETE /api/v1/admin/classes/{id} as a soft delete.
func (h *ClassHandler) DeleteClass(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(r, "id")
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	if err := h.Catalog.Deactivate(r.Context(), id); err != nil {
		WriteError(w, h.Logger, err, "class_id", id)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Class deactivated"})
}
