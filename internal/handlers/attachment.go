package handlers

import (
	"net/http"

	"github.com/printdesk/printdesk/internal/httpx"
	"github.com/printdesk/printdesk/internal/services"
)

// AttachmentHandler exposes attachment metadata operations; bytes live with
// the external storage collaborator.
type AttachmentHandler struct {
	Attachments *services.AttachmentService
}

func NewAttachmentHandler(a *services.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{Attachments: a}
}

// Add: POST /api/quotes/{quoteId}/attachments
func (h *AttachmentHandler) Add(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	quoteID, ok := pathID(w, r, "quoteId")
	if !ok {
		return
	}
	var req services.AttachmentInput
	if !decode(w, r, &req) {
		return
	}
	req.QuoteID = quoteID
	att, err := h.Attachments.Add(r.Context(), actor, req)
	if err != nil {
		httpx.DomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, att)
}

// ListForQuote: GET /api/quotes/{quoteId}/attachments
func (h *AttachmentHandler) ListForQuote(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	quoteID, ok := pathID(w, r, "quoteId")
	if !ok {
		return
	}
	atts, err := h.Attachments.ListForQuote(r.Context(), actor, quoteID)
	if err != nil {
		httpx.DomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, atts)
}

// ListForJob: GET /api/jobs/{jobId}/attachments
func (h *AttachmentHandler) ListForJob(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	jobID, ok := pathID(w, r, "jobId")
	if !ok {
		return
	}
	atts, err := h.Attachments.ListForJob(r.Context(), actor, jobID)
	if err != nil {
		httpx.DomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, atts)
}
