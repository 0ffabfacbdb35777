package handlers

import (
	"net/http"

	"github.com/printdesk/printdesk/internal/httpx"
	"github.com/printdesk/printdesk/internal/identity"
	"github.com/printdesk/printdesk/internal/services"
)

// QuoteHandler exposes the quote lifecycle.
type QuoteHandler struct {
	Quotes      *services.QuoteService
	Assignments *services.AssignmentService
	Views       *services.ViewService
}

func NewQuoteHandler(q *services.QuoteService, a *services.AssignmentService, v *services.ViewService) *QuoteHandler {
	return &QuoteHandler{Quotes: q, Assignments: a, Views: v}
}

// Create: POST /api/quotes
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req struct {
		CustomerID uint                    `json:"customer_id"`
		Items      []services.NewQuoteItem `json:"items"`
	}
	if !decode(w, r, &req) {
		return
	}
	quote, err := h.Quotes.CreateQuoteRequest(r.Context(), actor, req.CustomerID, req.Items)
	if err != nil {
		httpx.DomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, quote)
}

// Price: POST /api/quotes/{quoteId}/price
func (h *QuoteHandler) Price(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	quoteID, ok := pathID(w, r, "quoteId")
	if !ok {
		return
	}
	var req struct {
		EmployeeID     uint                 `json:"employee_id"`
		Items          []services.ItemPrice `json:"items"`
		FinalValue     float64              `json:"final_value"`
		AutoProduction bool                 `json:"auto_production"`
	}
	if !decode(w, r, &req) {
		return
	}
	quote, err := h.Quotes.PriceQuote(r.Context(), actor, quoteID, req.EmployeeID, req.Items, req.FinalValue, req.AutoProduction)
	if err != nil {
		httpx.DomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

// Approve: POST /api/quotes/{quoteId}/approve
func (h *QuoteHandler) Approve(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	quoteID, ok := pathID(w, r, "quoteId")
	if !ok {
		return
	}
	quote, err := h.Assignments.ApproveQuote(r.Context(), actor, quoteID)
	if err != nil {
		httpx.DomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

// Reject: POST /api/quotes/{quoteId}/reject
func (h *QuoteHandler) Reject(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	quoteID, ok := pathID(w, r, "quoteId")
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if !decode(w, r, &req) {
		return
	}
	quote, err := h.Quotes.RejectQuote(r.Context(), actor, quoteID, req.Reason)
	if err != nil {
		httpx.DomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

// Revise: POST /api/quotes/{quoteId}/revise
func (h *QuoteHandler) Revise(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	quoteID, ok := pathID(w, r, "quoteId")
	if !ok {
		return
	}
	var req struct {
		EmployeeID uint `json:"employee_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	revision, err := h.Quotes.ReviseQuote(r.Context(), actor, quoteID, req.EmployeeID)
	if err != nil {
		httpx.DomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, revision)
}

// RateDeal: POST /api/quotes/{quoteId}/rate
func (h *QuoteHandler) RateDeal(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	quoteID, ok := pathID(w, r, "quoteId")
	if !ok {
		return
	}
	var req struct {
		Rating int `json:"rating"`
	}
	if !decode(w, r, &req) {
		return
	}
	quote, err := h.Quotes.RateDeal(r.Context(), actor, quoteID, req.Rating)
	if err != nil {
		httpx.DomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

// Assign: POST /api/quotes/{quoteId}/assign
func (h *QuoteHandler) Assign(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	quoteID, ok := pathID(w, r, "quoteId")
	if !ok {
		return
	}
	var req struct {
		SupplierID uint                      `json:"supplier_id"`
		Items      []services.ItemAssignment `json:"items"`
	}
	if !decode(w, r, &req) {
		return
	}
	quote, err := h.Assignments.AssignSuppliers(r.Context(), actor, quoteID, req.SupplierID, req.Items)
	if err != nil {
		httpx.DomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

// Get: GET /api/quotes/{quoteId} — staff detail view.
func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	quoteID, ok := pathID(w, r, "quoteId")
	if !ok {
		return
	}
	if actor.Role != identity.RoleStaff {
		httpx.JSONError(w, http.StatusForbidden, "unauthorized", nil)
		return
	}
	quote, err := h.Quotes.Get(r.Context(), quoteID)
	if err != nil {
		httpx.DomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

// Chain: GET /api/quotes/chain/{rootId} — every version, one lookup.
func (h *QuoteHandler) Chain(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	rootID, ok := pathID(w, r, "rootId")
	if !ok {
		return
	}
	if actor.Role != identity.RoleStaff {
		httpx.JSONError(w, http.StatusForbidden, "unauthorized", nil)
		return
	}
	chain, err := h.Quotes.Chain(r.Context(), rootID)
	if err != nil {
		httpx.DomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, chain)
}

// CustomerView: GET /api/quotes/{quoteId}/customer-view
func (h *QuoteHandler) CustomerView(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	quoteID, ok := pathID(w, r, "quoteId")
	if !ok {
		return
	}
	view, err := h.Views.CustomerQuote(r.Context(), actor, quoteID)
	if err != nil {
		httpx.DomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}
