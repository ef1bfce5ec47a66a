package main

import (
	"log/slog"
	"time"

	"github.com/fightflight/backend/internal/handlers"
	"github.com/fightflight/backend/internal/router"
	"github.com/fightflight/backend/internal/services"
)

// LedgerAPI is the credit ledger as seen by members and admins.
type LedgerAPI interface {
	handlers.CreditService
	handlers.Adjuster
}

// MemberAPI is the member repository as seen by the form and admin handlers.
type MemberAPI interface {
	handlers.FormStore
	handlers.MemberLister
}

// Deps are the services behind the member and admin routes.
type Deps struct {
	Bookings  handlers.BookingService
	Ledger    LedgerAPI
	Expiry    handlers.ExpiryPolicy
	Catalog   handlers.Catalog
	Members   MemberAPI
	Validator *services.Validator
	Location  *time.Location
	Logger    *slog.Logger
}

// RegisterRoutes adds the class, booking, credit, form and admin endpoints.
func RegisterRoutes(rt *router.Router, d Deps) {
	classes := &handlers.ClassHandler{Catalog: d.Catalog, Validator: d.Validator, Logger: d.Logger}
	bookings := &handlers.BookingHandler{Bookings: d.Bookings, Validator: d.Validator, Location: d.Location, Logger: d.Logger}
	credits := &handlers.CreditHandler{Ledger: d.Ledger, Validator: d.Validator, Logger: d.Logger}
	forms := &handlers.FormHandler{Members: d.Members, Logger: d.Logger}
	admin := &handlers.AdminHandler{
		Ledger:    d.Ledger,
		Expiry:    d.Expiry,
		Members:   d.Members,
		Validator: d.Validator,
		Location:  d.Location,
		Logger:    d.Logger,
	}

	rt.Public("GET /classes", classes.ListClasses)
	rt.Public("GET /credit-packages", credits.ListPackages)

	rt.Member("POST /bookings", bookings.CreateBooking)
	rt.Member("GET /bookings", bookings.ListBookings)
	rt.Member("DELETE /bookings/{id}", bookings.CancelBooking)
	rt.Member("PUT /bookings/{id}/reschedule", bookings.RescheduleBooking)

	rt.Member("GET /credits", credits.GetCredits)
	rt.Member("GET /credits/history", credits.GetHistory)
	rt.Member("POST /credits/purchase", credits.Purchase)

	rt.Member("GET /forms", forms.ListForms)
	rt.Member("POST /forms/{id}/submit", forms.SubmitForm)

	rt.Admin("GET /admin/classes", classes.AdminListClasses)
	rt.Admin("POST /admin/classes", classes.CreateClass)
	rt.Admin("PUT /admin/classes/{id}", classes.UpdateClass)
	rt.Admin("DELETE /admin/classes/{id}", classes.DeleteClass)

	rt.Admin("POST /admin/credits/adjust", admin.AdjustCredits)
	rt.Admin("POST /admin/expiry/pause", admin.PauseExpiry)
	rt.Admin("POST /admin/expiry/resume", admin.ResumeExpiry)
	rt.Admin("GET /admin/members", admin.ListMembers)
}
