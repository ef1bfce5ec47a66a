package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fightflight/backend/internal/booking"
	"github.com/fightflight/backend/internal/models"
	"github.com/fightflight/backend/internal/services"
)

// BookingService is the booking workflow used by the handler.
// *booking.Service satisfies it.
type BookingService interface {
	Book(ctx context.Context, req booking.Request) (*models.Booking, error)
	Cancel(ctx context.Context, bookingID, memberID uuid.UUID) (*models.Booking, error)
	Reschedule(ctx context.Context, bookingID, memberID uuid.UUID, to time.Time) error
	List(ctx context.Context, memberID uuid.UUID, filter booking.Filter) ([]booking.Listed, error)
}

// BookingHandler serves /api/v1/bookings endpoints.
type BookingHandler struct {
	Bookings  BookingService
	Validator *services.Validator
	Location  *time.Location
	Logger    *slog.Logger
}

type createBookingRequest struct {
	MemberID        string `json:"memberId"`
	ClassTemplateID string `json:"classTemplateId"`
	OccurrenceDate  string `json:"occurrenceDate"`
	CreditsRequired int    `json:"creditsRequired"`
}

type memberRef struct {
	MemberID string `json:"memberId"`
}

type rescheduleRequest struct {
	MemberID       string `json:"memberId"`
	OccurrenceDate string `json:"occurrenceDate"`
}

type bookingResponse struct {
	ID              uuid.UUID            `json:"id"`
	MemberID        uuid.UUID            `json:"memberId"`
	ClassTemplateID uuid.UUID            `json:"classTemplateId"`
	ClassName       string               `json:"className"`
	ClassType       string               `json:"classType"`
	Instructor      string               `json:"instructor"`
	OccurrenceDate  string               `json:"occurrenceDate"`
	Time            string               `json:"time"`
	CreditsUsed     int                  `json:"creditsUsed"`
	Status          models.BookingStatus `json:"status"`
	CreatedAt       time.Time            `json:"createdAt"`
	Past            *bool                `json:"past,omitempty"`
	DaysUntil       *int                 `json:"daysUntil,omitempty"`
}

func toBookingResponse(b *models.Booking) bookingResponse {
	return bookingResponse{
		ID:              b.ID,
		MemberID:        b.MemberID,
		ClassTemplateID: b.ClassTemplateID,
		ClassName:       b.ClassName,
		ClassType:       b.ClassType,
		Instructor:      b.Instructor,
		OccurrenceDate:  formatDate(b.OccurrenceDate),
		Time:            b.WallClockTime,
		CreditsUsed:     b.CreditsUsed,
		Status:          b.Status,
		CreatedAt:       b.CreatedAt,
	}
}

func (h *BookingHandler) location() *time.Location {
	if h.Location == nil {
		return time.UTC
	}
	return h.Location
}

// CreateBooking handles POST /api/v1/bookings. A full class still answers
// 201 with status "waitlist".
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if !Decode(w, r, h.Validator, services.SchemaBookingCreate, &req, h.Logger) {
		return
	}
	memberID, err := actingMember(r, req.MemberID)
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	classID, err := uuid.Parse(req.ClassTemplateID)
	if err != nil {
		WriteError(w, h.Logger, models.ErrValidation)
		return
	}
	occurrence, err := parseDate(req.OccurrenceDate, h.location())
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}

	b, err := h.Bookings.Book(r.Context(), booking.Request{
		MemberID:        memberID,
		ClassTemplateID: classID,
		OccurrenceDate:  occurrence,
		CreditsRequired: req.CreditsRequired,
	})
	if err != nil {
		WriteError(w, h.Logger, err, "member_id", memberID, "class_id", classID)
		return
	}
	WriteJSON(w, http.StatusCreated, toBookingResponse(b))
}

// CancelBooking handles DELETE /api/v1/bookings/{id}.
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := parsePathID(r, "id")
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	var ref memberRef
	if !DecodeOptional(w, r, h.Validator, services.SchemaMemberRef, &ref, h.Logger) {
		return
	}
	memberID, err := actingMember(r, ref.MemberID)
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	b, err := h.Bookings.Cancel(r.Context(), bookingID, memberID)
	if err != nil {
		WriteError(w, h.Logger, err, "booking_id", bookingID, "member_id", memberID)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Booking cancelled",
		"booking": toBookingResponse(b),
	})
}

// RescheduleBooking handles PUT /api/v1/bookings/{id}/reschedule.
func (h *BookingHandler) RescheduleBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := parsePathID(r, "id")
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	var req rescheduleRequest
	if !Decode(w, r, h.Validator, services.SchemaReschedule, &req, h.Logger) {
		return
	}
	memberID, err := actingMember(r, req.MemberID)
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	to, err := parseDate(req.OccurrenceDate, h.location())
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	if err := h.Bookings.Reschedule(r.Context(), bookingID, memberID, *to); err != nil {
		WriteError(w, h.Logger, err, "booking_id", bookingID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListBookings handles GET /api/v1/bookings?type=all|upcoming|past.
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	memberID, err := actingMember(r, r.URL.Query().Get("memberId"))
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	filter, err := booking.ParseFilter(r.URL.Query().Get("type"))
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	listed, err := h.Bookings.List(r.Context(), memberID, filter)
	if err != nil {
		WriteError(w, h.Logger, err, "member_id", memberID)
		return
	}
	out := make([]bookingResponse, 0, len(listed))
	for _, l := range listed {
		resp := toBookingResponse(l.Booking)
		past, days := l.Past, l.DaysUntil
		resp.Past, resp.DaysUntil = &past, &days
		out = append(out, resp)
	}
	WriteJSON(w, http.StatusOK, map[string]any{"bookings": out})
}
