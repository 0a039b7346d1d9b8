package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/tournament-forecast/brackets"
	"github.com/Dosada05/tournament-forecast/services"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin ограничивается CORS на уровне роутера
		return true
	},
}

type WebSocketHandler struct {
	hub             *brackets.Hub
	forecastService services.ForecastService
}

func NewWebSocketHandler(hub *brackets.Hub, fs services.ForecastService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:             hub,
		forecastService: fs,
	}
}

// ServeForecastWs подписывает клиента на события прогресса прогона.
// Клиент должен подключаться к /ws/forecasts/{forecastID}
func (h *WebSocketHandler) ServeForecastWs(w http.ResponseWriter, r *http.Request) {
	runID, err := getIDFromURL(r, "forecastID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	// Проверяем, что прогон существует, до апгрейда соединения
	if _, err := h.forecastService.GetForecast(r.Context(), runID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader.Upgrade сам отправляет HTTP ошибку клиенту, так что здесь просто логируем.
		slog.WarnContext(r.Context(), "websocket upgrade failed", "run_id", runID, "error", err)
		return
	}

	roomID := brackets.ForecastRoom(runID)
	client := &brackets.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256), // Буферизированный канал
		Room: roomID,
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()

	slog.Debug("websocket client registered", "room", roomID)
}
