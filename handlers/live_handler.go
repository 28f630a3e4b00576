package handlers

import (
	"net/http"

	"github.com/quadra-gg/quadra/models"
	"github.com/quadra-gg/quadra/services"
)

type LiveHandler struct {
	scoreService services.ScoreService
}

func NewLiveHandler(scoreService services.ScoreService) *LiveHandler {
	return &LiveHandler{scoreService: scoreService}
}

// PushEvent принимает одно событие скоринга от админа или интеграции
// и применяет его к live-состоянию матча.
func (h *LiveHandler) PushEvent(w http.ResponseWriter, r *http.Request) {
	matchID, err := readIDParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Type    models.LiveEventType    `json:"type"`
		Payload models.LiveEventPayload `json:"payload"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.scoreService.ApplyEvent(r.Context(), matchID, input.Type, input.Payload); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"success": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LiveHandler) GetState(w http.ResponseWriter, r *http.Request) {
	matchID, err := readIDParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	state, err := h.scoreService.GetLiveState(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"state": state}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListActive возвращает live-состояния всех матчей со статусом live.
func (h *LiveHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	states, err := h.scoreService.ListActiveStates(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"states": states}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
