package handlers

import (
	"net/http"

	"github.com/quadra-gg/quadra/middleware"
	"github.com/quadra-gg/quadra/services"
)

type NotificationHandler struct {
	notificationService services.NotificationService
}

func NewNotificationHandler(notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	unreadOnly := r.URL.Query().Get("unread") == "true"

	notifications, err := h.notificationService.ListForUser(r.Context(), userID, unreadOnly)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"notifications": notifications}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	notificationID, err := readIDParam(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), notificationID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
