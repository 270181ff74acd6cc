package api

import (
	"encoding/json/v2"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/atlantisbot/atlantis-ledger/internal/errors"
	"github.com/atlantisbot/atlantis-ledger/internal/http/response"
)

const defaultTopLimit = 10

type joinEventRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type leaveEventRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type redeemRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	ServiceID string `json:"service_id" validate:"required"`
}

type createBillRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
	Product    string `json:"product" validate:"required"`
	Price      string `json:"price" validate:"required"`
	BillURL    string `json:"bill_url" validate:"omitempty,url"`
}

// decode reads and validates a JSON request body.
func (s *Server) decode(r *http.Request, dest any) error {
	if err := json.UnmarshalRead(r.Body, dest); err != nil {
		return apperrors.Validation("invalid request body").WithCause(err)
	}
	return s.validator.Validate(dest)
}

// handleGetBalance returns one user's balance.
func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	communityID := chi.URLParam(r, "communityID")
	userID := chi.URLParam(r, "userID")

	balance, err := s.rewards.GetBalance(communityID, userID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, balance, s.logger)
}

// handleGetTop returns the community leaderboard.
func (s *Server) handleGetTop(w http.ResponseWriter, r *http.Request) {
	communityID := chi.URLParam(r, "communityID")

	limit := defaultTopLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			response.BadRequest(w, "limit must be a positive integer", s.logger)
			return
		}
		limit = parsed
	}

	top, err := s.rewards.GetTop(communityID, limit)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, top, s.logger)
}

// handleGetRewards returns an inviter's pending and credited entries.
func (s *Server) handleGetRewards(w http.ResponseWriter, r *http.Request) {
	communityID := chi.URLParam(r, "communityID")
	userID := chi.URLParam(r, "userID")

	rewards, err := s.rewards.GetRewards(communityID, userID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, rewards, s.logger)
}

// handleGetInviter returns who invited a member.
func (s *Server) handleGetInviter(w http.ResponseWriter, r *http.Request) {
	communityID := chi.URLParam(r, "communityID")
	userID := chi.URLParam(r, "userID")

	inviterID, err := s.rewards.InviterOf(communityID, userID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, map[string]string{
		"user_id":    userID,
		"inviter_id": inviterID,
	}, s.logger)
}

// handleJoinEvent records a member join.
func (s *Server) handleJoinEvent(w http.ResponseWriter, r *http.Request) {
	communityID := chi.URLParam(r, "communityID")

	var req joinEventRequest
	if err := s.decode(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	pending, err := s.rewards.OnJoin(r.Context(), communityID, req.UserID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Created(w, pending, s.logger)
}

// handleLeaveEvent records a member leave.
func (s *Server) handleLeaveEvent(w http.ResponseWriter, r *http.Request) {
	communityID := chi.URLParam(r, "communityID")

	var req leaveEventRequest
	if err := s.decode(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if err := s.rewards.OnLeave(r.Context(), communityID, req.UserID); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.NoContent(w)
}

// handleGetCatalog returns the current redemption catalog.
func (s *Server) handleGetCatalog(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, s.rewards.Settings().Catalog, s.logger)
}

// handleRedeem spends balance against a catalog service.
func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	communityID := chi.URLParam(r, "communityID")

	var req redeemRequest
	if err := s.decode(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	order, err := s.rewards.Redeem(r.Context(), communityID, req.UserID, req.ServiceID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Created(w, order, s.logger)
}

// handleListOrders returns a community's redemption orders.
func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	communityID := chi.URLParam(r, "communityID")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	orders, err := s.rewards.ListOrders(r.Context(), communityID, limit)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, orders, s.logger)
}

// handleFulfillOrder flips an order to done, idempotently.
func (s *Server) handleFulfillOrder(w http.ResponseWriter, r *http.Request) {
	orderNo := chi.URLParam(r, "orderNo")

	order, changed, err := s.rewards.MarkOrderFulfilled(r.Context(), orderNo)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, map[string]any{
		"order":   order,
		"changed": changed,
	}, s.logger)
}

// handleCreateBill logs a manual sale.
func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	communityID := chi.URLParam(r, "communityID")

	var req createBillRequest
	if err := s.decode(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	bill, err := s.rewards.LogBill(r.Context(), communityID, req.CustomerID, req.Product, req.Price, req.BillURL)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Created(w, bill, s.logger)
}

// handleFulfillBill flips a bill to done, idempotently.
func (s *Server) handleFulfillBill(w http.ResponseWriter, r *http.Request) {
	billID := chi.URLParam(r, "billID")

	changed, err := s.rewards.MarkBillDone(r.Context(), billID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, map[string]any{
		"bill_id": billID,
		"changed": changed,
	}, s.logger)
}

// handleListBills returns a community's logged sales.
func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	communityID := chi.URLParam(r, "communityID")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	bills, err := s.rewards.ListBills(r.Context(), communityID, limit)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, bills, s.logger)
}
