package handlers

import (
	"net/http"

	"github.com/printdesk/printdesk/internal/httpx"
	"github.com/printdesk/printdesk/internal/services"
)

// CustomerHandler registers customers.
type CustomerHandler struct {
	Customers *services.CustomerService
}

func NewCustomerHandler(c *services.CustomerService) *CustomerHandler {
	return &CustomerHandler{Customers: c}
}

// Create: POST /api/customers
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req services.CustomerInput
	if !decode(w, r, &req) {
		return
	}
	customer, err := h.Customers.Create(r.Context(), actor, req)
	if err != nil {
		httpx.DomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, customer)
}
