package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fightflight/backend/internal/booking"
	"github.com/fightflight/backend/internal/catalog"
	"github.com/fightflight/backend/internal/ledger"
	"github.com/fightflight/backend/internal/middleware"
	"github.com/fightflight/backend/internal/models"
	"github.com/fightflight/backend/internal/services"
)

var (
	ist       = time.FixedZone("IST", 5*60*60+30*60)
	validator = services.MustNewValidator()
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubBookings struct {
	mu       sync.Mutex
	lastReq  booking.Request
	bookErr  error
	status   models.BookingStatus
	cancelBy uuid.UUID
	listed   []booking.Listed
}

func (s *stubBookings) Book(_ context.Context, req booking.Request) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastReq = req
	if s.bookErr != nil {
		return nil, s.bookErr
	}
	date := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	if req.OccurrenceDate != nil {
		date = *req.OccurrenceDate
	}
	return &models.Booking{
		ID:              uuid.New(),
		MemberID:        req.MemberID,
		ClassTemplateID: req.ClassTemplateID,
		ClassName:       "Muay Thai Fundamentals",
		OccurrenceDate:  date,
		WallClockTime:   "6:30 PM",
		CreditsUsed:     1,
		Status:          s.status,
	}, nil
}

func (s *stubBookings) Cancel(_ context.Context, bookingID, memberID uuid.UUID) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelBy = memberID
	return &models.Booking{ID: bookingID, MemberID: memberID, Status: models.BookingStatusCancelled}, nil
}

func (s *stubBookings) Reschedule(context.Context, uuid.UUID, uuid.UUID, time.Time) error {
	return models.ErrRescheduleUnsupported
}

func (s *stubBookings) List(_ context.Context, _ uuid.UUID, _ booking.Filter) ([]booking.Listed, error) {
	return s.listed, nil
}

type stubLedger struct {
	summary  *ledger.Summary
	adjusted []int
	err      error
}

func (s *stubLedger) Summary(context.Context, uuid.UUID, int) (*ledger.Summary, error) {
	return s.summary, s.err
}

func (s *stubLedger) History(context.Context, uuid.UUID, int) ([]*models.CreditTransaction, error) {
	return []*models.CreditTransaction{{ID: uuid.New(), Direction: models.CreditDirectionDebit, Amount: 1, ResultingBalance: 4}}, nil
}

func (s *stubLedger) Purchase(_ context.Context, memberID uuid.UUID, pkg models.CreditPackage, _, _ string) (*models.CreditTransaction, error) {
	exp := time.Date(2027, 2, 12, 0, 0, 0, 0, ist)
	return &models.CreditTransaction{ID: uuid.New(), MemberID: memberID, Direction: models.CreditDirectionCredit,
		Amount: pkg.Credits, ResultingBalance: pkg.Credits, ExpiryDate: &exp}, nil
}

func (s *stubLedger) Adjust(_ context.Context, memberID uuid.UUID, amount int, _ string) (*models.CreditTransaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.adjusted = append(s.adjusted, amount)
	return &models.CreditTransaction{ID: uuid.New(), MemberID: memberID, Amount: amount, ResultingBalance: 7}, nil
}

type stubExpiry struct {
	until *time.Time
}

func (s *stubExpiry) Pause(_ context.Context, id uuid.UUID, until *time.Time) (*models.Member, error) {
	s.until = until
	return &models.Member{ID: id, ExpiryPaused: true, PausedUntil: until}, nil
}

func (s *stubExpiry) Resume(_ context.Context, id uuid.UUID) (*models.Member, error) {
	return &models.Member{ID: id}, nil
}

type stubMembers struct {
	members []*models.Member
}

func (s *stubMembers) List(context.Context) ([]*models.Member, error) { return s.members, nil }

func (s *stubMembers) GetByID(_ context.Context, id uuid.UUID) (*models.Member, error) {
	for _, m := range s.members {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *stubMembers) AddCompletedForm(ctx context.Context, id uuid.UUID, formID string) (*models.Member, error) {
	m, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	m.FormsCompleted = append(m.FormsCompleted, formID)
	return m, nil
}

type stubCatalog struct {
	created *catalog.Input
}

func (s *stubCatalog) ListUpcoming(context.Context) ([]*models.ClassTemplate, error) {
	return []*models.ClassTemplate{{ID: uuid.New(), Name: "Sunset Yoga", Weekday: time.Friday, WallClockTime: "6:00 PM", Active: true}}, nil
}

func (s *stubCatalog) List(context.Context, bool) ([]*models.ClassTemplate, error) { return nil, nil }

func (s *stubCatalog) Create(_ context.Context, in catalog.Input) (*models.ClassTemplate, error) {
	s.created = &in
	return &models.ClassTemplate{ID: uuid.New(), Name: in.Name, Weekday: time.Monday, WallClockTime: in.Time, Active: true}, nil
}

func (s *stubCatalog) Update(_ context.Context, id uuid.UUID, _ catalog.Patch) (*models.ClassTemplate, error) {
	return nil, fmt.Errorf("get class %s: %w", id, models.ErrNotFound)
}

func (s *stubCatalog) Deactivate(context.Context, uuid.UUID) error { return nil }

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func request(method, target, body string, id middleware.Identity) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(middleware.WithIdentity(req.Context(), id))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func member() middleware.Identity {
	return middleware.Identity{MemberID: uuid.New(), Role: models.RoleMember}
}

func admin() middleware.Identity {
	return middleware.Identity{MemberID: uuid.New(), Role: models.RoleAdmin}
}

// ---------------------------------------------------------------------------
// Error mapping
// ---------------------------------------------------------------------------

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("x: %w", models.ErrValidation), http.StatusBadRequest, "validation_failed"},
		{models.ErrInsufficientCredits, http.StatusBadRequest, "insufficient_credits"},
		{models.ErrFormsIncomplete, http.StatusForbidden, "forms_incomplete"},
		{models.ErrForbidden, http.StatusForbidden, "forbidden"},
		{fmt.Errorf("get booking: %w", models.ErrNotFound), http.StatusNotFound, "not_found"},
		{models.ErrBookingCancelled, http.StatusConflict, "booking_cancelled"},
		{models.ErrConflict, http.StatusConflict, "conflict"},
		{models.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{models.ErrRescheduleUnsupported, http.StatusNotImplemented, "not_implemented"},
		{errors.New("connection reset"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, nil, tt.err)
			assert.Equal(t, tt.status, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, tt.code, body["code"])
			if tt.status == http.StatusInternalServerError {
				assert.Equal(t, "internal error", body["error"])
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Bookings
// ---------------------------------------------------------------------------

func TestCreateBookingUsesTokenIdentity(t *testing.T) {
	stub := &stubBookings{status: models.BookingStatusConfirmed}
	h := &BookingHandler{Bookings: stub, Validator: validator, Location: ist}
	caller := member()
	classID := uuid.New()

	rec := httptest.NewRecorder()
	h.CreateBooking(rec, request(http.MethodPost, "/api/v1/bookings",
		`{"classTemplateId":"`+classID.String()+`","occurrenceDate":"2026-10-22","creditsRequired":1}`, caller))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, caller.MemberID, stub.lastReq.MemberID)
	assert.Equal(t, classID, stub.lastReq.ClassTemplateID)
	require.NotNil(t, stub.lastReq.OccurrenceDate)
	assert.Equal(t, time.Date(2026, 10, 22, 0, 0, 0, 0, ist), *stub.lastReq.OccurrenceDate)

	body := decodeBody(t, rec)
	assert.Equal(t, "confirmed", body["status"])
	assert.Equal(t, "2026-10-22", body["occurrenceDate"])
}

func TestCreateBookingWaitlistIsStillCreated(t *testing.T) {
	h := &BookingHandler{Bookings: &stubBookings{status: models.BookingStatusWaitlist}, Validator: validator}
	rec := httptest.NewRecorder()
	h.CreateBooking(rec, request(http.MethodPost, "/api/v1/bookings", `{"classTemplateId":"`+uuid.NewString()+`"}`, member()))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "waitlist", decodeBody(t, rec)["status"])
}

func TestCreateBookingRejections(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"forms", models.ErrFormsIncomplete, http.StatusForbidden, "forms_incomplete"},
		{"credits", fmt.Errorf("debit: %w", models.ErrInsufficientCredits), http.StatusBadRequest, "insufficient_credits"},
		{"class", models.ErrNotFound, http.StatusNotFound, "not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BookingHandler{Bookings: &stubBookings{bookErr: tt.err}, Validator: validator}
			rec := httptest.NewRecorder()
			h.CreateBooking(rec, request(http.MethodPost, "/api/v1/bookings", `{"classTemplateId":"`+uuid.NewString()+`"}`, member()))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeBody(t, rec)["code"])
		})
	}
}

func TestCreateBookingForAnotherMember(t *testing.T) {
	other := uuid.New()
	body := `{"memberId":"` + other.String() + `","classTemplateId":"` + uuid.NewString() + `"}`

	stub := &stubBookings{status: models.BookingStatusConfirmed}
	h := &BookingHandler{Bookings: stub, Validator: validator}

	rec := httptest.NewRecorder()
	h.CreateBooking(rec, request(http.MethodPost, "/api/v1/bookings", body, member()))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.CreateBooking(rec, request(http.MethodPost, "/api/v1/bookings", body, admin()))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, other, stub.lastReq.MemberID)
}

func TestCreateBookingValidation(t *testing.T) {
	h := &BookingHandler{Bookings: &stubBookings{}, Validator: validator}
	for _, body := range []string{
		`{}`,
		`{"classTemplateId":"` + uuid.NewString() + `","occurrenceDate":"22/10/2026"}`,
		`{"classTemplateId":"` + uuid.NewString() + `","occurrenceDate":"2026-13-40"}`,
		`{"classTemplateId":"` + uuid.NewString() + `","creditsRequired":0}`,
	} {
		rec := httptest.NewRecorder()
		h.CreateBooking(rec, request(http.MethodPost, "/api/v1/bookings", body, member()))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestCancelBooking(t *testing.T) {
	stub := &stubBookings{}
	h := &BookingHandler{Bookings: stub, Validator: validator}
	caller := member()
	id := uuid.New()

	req := request(http.MethodDelete, "/api/v1/bookings/"+id.String(), "", caller)
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()
	h.CancelBooking(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, caller.MemberID, stub.cancelBy)
	assert.Equal(t, "Booking cancelled", decodeBody(t, rec)["message"])

	req = request(http.MethodDelete, "/api/v1/bookings/nope", "", caller)
	req.SetPathValue("id", "nope")
	rec = httptest.NewRecorder()
	h.CancelBooking(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRescheduleIsNotImplemented(t *testing.T) {
	h := &BookingHandler{Bookings: &stubBookings{}, Validator: validator}
	id := uuid.New()
	req := request(http.MethodPut, "/api/v1/bookings/"+id.String()+"/reschedule", `{"occurrenceDate":"2026-10-29"}`, member())
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()
	h.RescheduleBooking(rec, req)

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "not_implemented", body["code"])
	assert.Equal(t, "coming soon", body["error"])
}

func TestListBookings(t *testing.T) {
	b := &models.Booking{ID: uuid.New(), OccurrenceDate: time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC), Status: models.BookingStatusConfirmed}
	h := &BookingHandler{Bookings: &stubBookings{listed: []booking.Listed{{Booking: b, DaysUntil: 5}}}, Validator: validator}

	rec := httptest.NewRecorder()
	h.ListBookings(rec, request(http.MethodGet, "/api/v1/bookings?type=upcoming", "", member()))
	require.Equal(t, http.StatusOK, rec.Code)
	items := decodeBody(t, rec)["bookings"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "2026-10-20", item["occurrenceDate"])
	assert.Equal(t, float64(5), item["daysUntil"])
	assert.Equal(t, false, item["past"])
	assert.NotContains(t, item, "attended")

	rec = httptest.NewRecorder()
	h.ListBookings(rec, request(http.MethodGet, "/api/v1/bookings?type=someday", "", member()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ---------------------------------------------------------------------------
// Credits
// ---------------------------------------------------------------------------

func TestGetCredits(t *testing.T) {
	stub := &stubLedger{summary: &ledger.Summary{
		Balance:      6,
		ExpiringLots: []ledger.ExpiringLot{{Amount: 5, ExpiryDate: time.Date(2026, 10, 30, 0, 0, 0, 0, ist), DaysLeft: 15}},
	}}
	h := &CreditHandler{Ledger: stub, Validator: validator}

	rec := httptest.NewRecorder()
	h.GetCredits(rec, request(http.MethodGet, "/api/v1/credits", "", member()))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(6), body["balance"])
	lot := body["expiringLots"].([]any)[0].(map[string]any)
	assert.Equal(t, "2026-10-30", lot["expiryDate"])
	assert.Equal(t, float64(15), lot["daysLeft"])

	rec = httptest.NewRecorder()
	h.GetCredits(rec, request(http.MethodGet, "/api/v1/credits?days=-1", "", member()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.GetCredits(rec, request(http.MethodGet, "/api/v1/credits?memberId="+uuid.NewString(), "", member()))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPackagesAndPurchase(t *testing.T) {
	h := &CreditHandler{Ledger: &stubLedger{}, Validator: validator}

	rec := httptest.NewRecorder()
	h.ListPackages(rec, request(http.MethodGet, "/api/v1/credit-packages", "", member()))
	require.Equal(t, http.StatusOK, rec.Code)
	pkgs := decodeBody(t, rec)["packages"].([]any)
	require.Len(t, pkgs, 3)
	ten := pkgs[1].(map[string]any)
	assert.Equal(t, "10-pack", ten["id"])
	assert.Equal(t, "22", ten["perClass"])
	assert.Equal(t, true, ten["popular"])

	rec = httptest.NewRecorder()
	h.Purchase(rec, request(http.MethodPost, "/api/v1/credits/purchase", `{"packageId":"10-pack","orderId":"o1","paymentId":"p1"}`, member()))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, float64(10), body["balance"])
	assert.Equal(t, "2027-02-12", body["transaction"].(map[string]any)["expiryDate"])

	rec = httptest.NewRecorder()
	h.Purchase(rec, request(http.MethodPost, "/api/v1/credits/purchase", `{"packageId":"99-pack"}`, member()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ---------------------------------------------------------------------------
// Forms
// ---------------------------------------------------------------------------

func TestSubmitFormsUnlocksBooking(t *testing.T) {
	caller := member()
	members := &stubMembers{members: []*models.Member{{ID: caller.MemberID}}}
	h := &FormHandler{Members: members}

	for i, id := range models.RequiredFormIDs() {
		req := request(http.MethodPost, "/api/v1/forms/"+id+"/submit", "", caller)
		req.SetPathValue("id", id)
		rec := httptest.NewRecorder()
		h.SubmitForm(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		last := i == len(models.RequiredFormIDs())-1
		assert.Equal(t, last, decodeBody(t, rec)["allRequiredFormsCompleted"])
	}

	req := request(http.MethodPost, "/api/v1/forms/tax/submit", "", caller)
	req.SetPathValue("id", "tax")
	rec := httptest.NewRecorder()
	h.SubmitForm(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ---------------------------------------------------------------------------
// Classes
// ---------------------------------------------------------------------------

func TestClassEndpoints(t *testing.T) {
	stub := &stubCatalog{}
	h := &ClassHandler{Catalog: stub, Validator: validator}

	rec := httptest.NewRecorder()
	h.ListClasses(rec, httptest.NewRequest(http.MethodGet, "/api/v1/classes?activeOnly=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	cls := decodeBody(t, rec)["classes"].([]any)[0].(map[string]any)
	assert.Equal(t, "Friday", cls["weekday"])

	rec = httptest.NewRecorder()
	h.CreateClass(rec, request(http.MethodPost, "/api/v1/admin/classes",
		`{"name":"Aerial Silks","type":"aerial","instructor":"Maya","level":"beginner","weekday":"Monday",
		  "time":"7:00 PM","durationMinutes":60,"capacity":8,"creditsRequired":2}`, admin()))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 2, stub.created.CreditsRequired)

	rec = httptest.NewRecorder()
	h.CreateClass(rec, request(http.MethodPost, "/api/v1/admin/classes", `{"name":"Aerial Silks","capacity":0}`, admin()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	id := uuid.New()
	req := request(http.MethodPut, "/api/v1/admin/classes/"+id.String(), `{"capacity":12}`, admin())
	req.SetPathValue("id", id.String())
	rec = httptest.NewRecorder()
	h.UpdateClass(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ---------------------------------------------------------------------------
// Admin
// ---------------------------------------------------------------------------

func TestAdminAdjust(t *testing.T) {
	stub := &stubLedger{}
	h := &AdminHandler{Ledger: stub, Validator: validator}
	target := uuid.NewString()

	rec := httptest.NewRecorder()
	h.AdjustCredits(rec, request(http.MethodPost, "/api/v1/admin/credits/adjust", `{"memberId":"`+target+`","amount":-2,"reason":"no-show"}`, admin()))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []int{-2}, stub.adjusted)

	stub.err = fmt.Errorf("debit: %w", models.ErrInsufficientCredits)
	rec = httptest.NewRecorder()
	h.AdjustCredits(rec, request(http.MethodPost, "/api/v1/admin/credits/adjust", `{"memberId":"`+target+`","amount":-50}`, admin()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "insufficient_credits", decodeBody(t, rec)["code"])
}

func TestAdminPauseAndResume(t *testing.T) {
	stub := &stubExpiry{}
	h := &AdminHandler{Expiry: stub, Validator: validator, Location: ist}
	target := uuid.NewString()

	rec := httptest.NewRecorder()
	h.PauseExpiry(rec, request(http.MethodPost, "/api/v1/admin/expiry/pause", `{"memberId":"`+target+`","untilDate":"2026-12-01"}`, admin()))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, stub.until)
	assert.Equal(t, time.Date(2026, 12, 1, 0, 0, 0, 0, ist), *stub.until)
	assert.Equal(t, "2026-12-01", decodeBody(t, rec)["pausedUntil"])

	rec = httptest.NewRecorder()
	h.PauseExpiry(rec, request(http.MethodPost, "/api/v1/admin/expiry/pause", `{"memberId":"`+target+`"}`, admin()))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, stub.until)

	rec = httptest.NewRecorder()
	h.ResumeExpiry(rec, request(http.MethodPost, "/api/v1/admin/expiry/resume", `{"memberId":"`+target+`"}`, admin()))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["expiryPaused"])
}

func TestAdminListMembers(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, ist)
	m := &models.Member{
		ID:            uuid.New(),
		Name:          "Asha",
		CreditBalance: 8,
		CreditLots: []models.CreditLot{
			{Amount: 5, ExpiryDate: time.Date(2026, 11, 1, 0, 0, 0, 0, ist)},
			{Amount: 3, ExpiryDate: time.Date(2026, 10, 20, 0, 0, 0, 0, ist)},
			{Amount: 10, ExpiryDate: time.Date(2027, 3, 1, 0, 0, 0, 0, ist)},
		},
	}
	h := &AdminHandler{Members: &stubMembers{members: []*models.Member{m}}, Location: ist, Now: func() time.Time { return now }}

	rec := httptest.NewRecorder()
	h.ListMembers(rec, request(http.MethodGet, "/api/v1/admin/members", "", admin()))
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody(t, rec)["members"].([]any)[0].(map[string]any)
	assert.Equal(t, "2026-10-20", got["nearestExpiry"])
	assert.Equal(t, float64(8), got["expiringCredits"])
	assert.Equal(t, float64(8), got["creditBalance"])
}

func TestAdminListMembersPauseDayInStudioZone(t *testing.T) {
	until := time.Date(2026, 11, 1, 0, 0, 0, 0, ist).In(time.UTC)
	m := &models.Member{ID: uuid.New(), Name: "Ravi", ExpiryPaused: true, PausedUntil: &until}
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, ist)
	h := &AdminHandler{Members: &stubMembers{members: []*models.Member{m}}, Location: ist, Now: func() time.Time { return now }}

	rec := httptest.NewRecorder()
	h.ListMembers(rec, request(http.MethodGet, "/api/v1/admin/members", "", admin()))
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody(t, rec)["members"].([]any)[0].(map[string]any)
	assert.Equal(t, true, got["expiryPaused"])
	assert.Equal(t, "2026-11-01", got["pausedUntil"])
}

func TestCancelBookingChunkedBodyIsScopeChecked(t *testing.T) {
	id := uuid.New()
	other := uuid.New()
	body := `{"memberId":"` + other.String() + `"}`

	stub := &stubBookings{}
	h := &BookingHandler{Bookings: stub, Validator: validator}
	req := request(http.MethodDelete, "/api/v1/bookings/"+id.String(), body, member())
	req.ContentLength = -1
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()
	h.CancelBooking(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
	assert.Equal(t, uuid.Nil, stub.cancelBy)

	req = request(http.MethodDelete, "/api/v1/bookings/"+id.String(), body, admin())
	req.ContentLength = -1
	req.SetPathValue("id", id.String())
	rec = httptest.NewRecorder()
	h.CancelBooking(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, other, stub.cancelBy)
}
