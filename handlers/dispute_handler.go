package handlers

import (
	"net/http"

	"github.com/quadra-gg/quadra/models"
	"github.com/quadra-gg/quadra/services"
)

type DisputeHandler struct {
	disputeService services.DisputeService
}

func NewDisputeHandler(disputeService services.DisputeService) *DisputeHandler {
	return &DisputeHandler{disputeService: disputeService}
}

func (h *DisputeHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	disputes, err := h.disputeService.ListOpenDisputes(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"disputes": disputes}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *DisputeHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	disputeID, err := readIDParam(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Status     models.DisputeStatus `json:"status"`
		Resolution string               `json:"resolution"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.disputeService.ResolveDispute(r.Context(), disputeID, input.Status, input.Resolution); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": "resolved"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
