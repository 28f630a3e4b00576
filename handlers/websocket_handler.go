package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/quadra-gg/quadra/live"
	"github.com/quadra-gg/quadra/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// В продакшене здесь должна быть проверка Origin,
		// чтобы разрешать подключения только с доверенных доменов.
		return true
	},
}

type WebSocketHandler struct {
	hub    *live.Hub
	auth   *middleware.Auth
	logger *slog.Logger
}

func NewWebSocketHandler(hub *live.Hub, auth *middleware.Auth, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, auth: auth, logger: logger}
}

// ServeWs выполняет WebSocket-рукопожатие. Токен приходит query-параметром,
// т.к. браузерный WebSocket API не умеет ставить заголовок Authorization.
// Клиент подписывается на комнаты матча и/или турнира через ?match= и
// ?tournament=; личная комната пользователя подключается всегда.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.auth.ValidateToken(tokenString)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	userID, err := middleware.GetUserIDFromContext(middleware.ContextWithClaims(r.Context(), claims))
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	rooms := []string{live.UserRoom(userID)}

	if matchStr := r.URL.Query().Get("match"); matchStr != "" {
		matchID, err := strconv.Atoi(matchStr)
		if err != nil || matchID < 1 {
			http.Error(w, "Invalid match parameter", http.StatusBadRequest)
			return
		}
		rooms = append(rooms, live.MatchRoom(matchID))
	}
	if tournamentStr := r.URL.Query().Get("tournament"); tournamentStr != "" {
		tournamentID, err := strconv.Atoi(tournamentStr)
		if err != nil || tournamentID < 1 {
			http.Error(w, "Invalid tournament parameter", http.StatusBadRequest)
			return
		}
		rooms = append(rooms, live.TournamentRoom(tournamentID))
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader.Upgrade сам отправляет HTTP ошибку клиенту.
		h.logger.Error("failed to upgrade websocket connection",
			slog.Int("user_id", userID),
			slog.Any("error", err),
		)
		return
	}

	client := &live.Client{
		Hub:   h.hub,
		Conn:  conn,
		Send:  make(chan []byte, 256),
		Rooms: rooms,
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()

	h.logger.Info("websocket client connected",
		slog.Int("user_id", userID),
		slog.Any("rooms", rooms),
	)
}
