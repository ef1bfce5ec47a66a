// Package router assembles the /api/v1 HTTP surface and its middleware.
package router

import (
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/fightflight/backend/internal/auth"
	"github.com/fightflight/backend/internal/dashboard"
	"github.com/fightflight/backend/internal/handlers"
	"github.com/fightflight/backend/internal/middleware"
)

// Base is the prefix of every API route.
const Base = "/api/v1"

// Router registers routes in one of three access groups: public, member
// (valid token, own records only) and admin (valid token with admin role).
type Router struct {
	mux   *http.ServeMux
	authn func(http.Handler) http.Handler
}

// New registers the auth and account routes. Login and registration are
// rate limited per client.
func New(authHandler *auth.Handler, dashHandler *dashboard.Handler, tokens middleware.TokenValidator, limiter *middleware.RateLimiter) *Router {
	rt := &Router{mux: http.NewServeMux(), authn: middleware.Authenticate(tokens)}

	rt.mux.Handle("POST "+Base+"/auth/register", limiter.Middleware(http.HandlerFunc(authHandler.Register)))
	rt.mux.Handle("POST "+Base+"/auth/login", limiter.Middleware(http.HandlerFunc(authHandler.Login)))
	rt.Member("GET /me", dashHandler.GetMe)
	rt.Public("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		handlers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return rt
}

// withBase turns "GET /bookings" into "GET /api/v1/bookings".
func withBase(pattern string) string {
	method, path, ok := strings.Cut(pattern, " ")
	if !ok {
		return Base + pattern
	}
	return method + " " + Base + path
}

func (rt *Router) Public(pattern string, h http.HandlerFunc) {
	rt.mux.Handle(withBase(pattern), h)
}

func (rt *Router) Member(pattern string, h http.HandlerFunc) {
	rt.mux.Handle(withBase(pattern), rt.authn(middleware.MemberScope(h)))
}

func (rt *Router) Admin(pattern string, h http.HandlerFunc) {
	rt.mux.Handle(withBase(pattern), rt.authn(middleware.RequireAdmin(h)))
}

// Handler wraps the routes with request ids, real client IPs, panic
// recovery, a request timeout and CORS for the given origins.
func (rt *Router) Handler(allowedOrigins []string) http.Handler {
	var h http.Handler = rt.mux
	h = chimw.Timeout(30 * time.Second)(h)
	h = chimw.Recoverer(h)
	h = chimw.RealIP(h)
	h = chimw.RequestID(h)
	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
	}).Handler(h)
}
