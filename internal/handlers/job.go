package handlers

import (
	"net/http"

	"github.com/printdesk/printdesk/internal/httpx"
	"github.com/printdesk/printdesk/internal/identity"
	"github.com/printdesk/printdesk/internal/services"
)

// JobHandler exposes the fulfillment tracker.
type JobHandler struct {
	Fulfillment *services.FulfillmentService
	Views       *services.ViewService
}

func NewJobHandler(f *services.FulfillmentService, v *services.ViewService) *JobHandler {
	return &JobHandler{Fulfillment: f, Views: v}
}

// transition adapts the service calls that share the (actor, jobID) shape.
func (h *JobHandler) transition(w http.ResponseWriter, r *http.Request, fn func(actor identity.Actor, jobID uint) (any, error)) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	jobID, ok := pathID(w, r, "jobId")
	if !ok {
		return
	}
	result, err := fn(actor, jobID)
	if err != nil {
		httpx.DomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

// Accept: POST /api/jobs/{jobId}/accept
func (h *JobHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actor identity.Actor, jobID uint) (any, error) {
		return h.Fulfillment.AcceptJob(r.Context(), actor, jobID)
	})
}

// Ready: POST /api/jobs/{jobId}/ready
func (h *JobHandler) Ready(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actor identity.Actor, jobID uint) (any, error) {
		return h.Fulfillment.MarkJobReady(r.Context(), actor, jobID)
	})
}

// Pickup: POST /api/jobs/{jobId}/pickup
func (h *JobHandler) Pickup(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actor identity.Actor, jobID uint) (any, error) {
		return h.Fulfillment.MarkPickedUp(r.Context(), actor, jobID)
	})
}

// Deliver: POST /api/jobs/{jobId}/deliver
func (h *JobHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actor identity.Actor, jobID uint) (any, error) {
		return h.Fulfillment.MarkDelivered(r.Context(), actor, jobID)
	})
}

// Cancel: POST /api/jobs/{jobId}/cancel
func (h *JobHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	jobID, ok := pathID(w, r, "jobId")
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if !decode(w, r, &req) {
		return
	}
	job, err := h.Fulfillment.CancelJob(r.Context(), actor, jobID, req.Reason)
	if err != nil {
		httpx.DomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, job)
}

// Rate: POST /api/jobs/{jobId}/rate
func (h *JobHandler) Rate(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	jobID, ok := pathID(w, r, "jobId")
	if !ok {
		return
	}
	var req struct {
		Rating int `json:"rating"`
	}
	if !decode(w, r, &req) {
		return
	}
	job, err := h.Fulfillment.RateJob(r.Context(), actor, jobID, req.Rating)
	if err != nil {
		httpx.DomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, job)
}

// SupplierView: GET /api/jobs/{jobId}/supplier-view
func (h *JobHandler) SupplierView(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actor identity.Actor, jobID uint) (any, error) {
		return h.Views.SupplierJob(r.Context(), actor, jobID)
	})
}

// CourierView: GET /api/jobs/{jobId}/courier-view
func (h *JobHandler) CourierView(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actor identity.Actor, jobID uint) (any, error) {
		return h.Views.CourierJob(r.Context(), actor, jobID)
	})
}
