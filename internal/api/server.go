// Package api provides the HTTP API server consumed by the companion
// presentation process: balance queries, join/leave event ingestion,
// redemption, and order fulfillment.
package api

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/atlantisbot/atlantis-ledger/internal/http/response"
	"github.com/atlantisbot/atlantis-ledger/internal/ratelimit"
	"github.com/atlantisbot/atlantis-ledger/internal/rewards"
	"github.com/atlantisbot/atlantis-ledger/internal/validation"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	rewards   *rewards.Service
	router    *chi.Mux
	logger    *slog.Logger
	apiToken  string
	validator *validation.Validator
	limiter   *ratelimit.KeyedRateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
// An empty apiToken disables authentication; intended for development only.
func NewServer(rewardsService *rewards.Service, apiToken string, logger *slog.Logger) *Server {
	s := &Server{
		rewards:   rewardsService,
		router:    chi.NewRouter(),
		logger:    logger,
		apiToken:  apiToken,
		validator: validation.New(),
		limiter:   ratelimit.New(5, 10),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	// API v1.
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/catalog", s.handleGetCatalog)

		r.Route("/communities/{communityID}", func(r chi.Router) {
			r.Get("/balances", s.handleGetTop)
			r.Get("/balances/{userID}", s.handleGetBalance)
			r.Get("/rewards/{userID}", s.handleGetRewards)
			r.Get("/members/{userID}/inviter", s.handleGetInviter)
			r.Get("/orders", s.handleListOrders)
			r.Get("/bills", s.handleListBills)
			r.Post("/bills", s.handleCreateBill)

			// Event and spend endpoints are rate limited per community.
			r.Group(func(r chi.Router) {
				r.Use(s.rateLimitByCommunity)
				r.Post("/events/join", s.handleJoinEvent)
				r.Post("/events/leave", s.handleLeaveEvent)
				r.Post("/redeem", s.handleRedeem)
			})
		})

		r.Post("/orders/{orderNo}/fulfill", s.handleFulfillOrder)
		r.Post("/bills/{billID}/fulfill", s.handleFulfillBill)
	})
}

// requireAuth enforces the static bearer token shared with the companion
// process. Comparison is constant time.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.apiToken)) != 1 {
			response.Unauthorized(w, "invalid or missing bearer token", s.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimitByCommunity applies the keyed token bucket per community.
func (s *Server) rateLimitByCommunity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		communityID := chi.URLParam(r, "communityID")
		if !s.limiter.Allow(communityID) {
			response.TooManyRequests(w, "too many requests for this community", s.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
	}, s.logger)
}
