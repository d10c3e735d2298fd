package handler

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/yourusername/brainiac-api/internal/service"
	"github.com/yourusername/brainiac-api/internal/websocket"
)

// WSHandler обрабатывает WebSocket соединения
type WSHandler struct {
	wsHub              *websocket.Hub
	wsManager          *websocket.Manager
	leaderboardService *service.LeaderboardService
	upgrader           gorillaws.Upgrader
}

// NewWSHandler создает новый обработчик WebSocket.
// allowedOrigins синхронизирован с CORS-конфигурацией в main.go.
func NewWSHandler(
	wsHub *websocket.Hub,
	wsManager *websocket.Manager,
	leaderboardService *service.LeaderboardService,
	allowedOrigins []string,
) *WSHandler {
	handler := &WSHandler{
		wsHub:              wsHub,
		wsManager:          wsManager,
		leaderboardService: leaderboardService,
	}

	handler.upgrader = gorillaws.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")

			// Пустой Origin — не браузерный клиент (curl, нативное приложение).
			// Разрешаем такие подключения.
			if origin == "" {
				return true
			}

			for _, allowed := range allowedOrigins {
				if allowed == "*" || origin == allowed {
					return true
				}
			}

			log.Printf("WebSocket: rejected unauthorized origin: %s", origin)
			return false
		},
		EnableCompression: true,
	}

	// Регистрируем обработчики сообщений один раз при создании обработчика
	handler.registerMessageHandlers()

	// Новый клиент сразу получает актуальный снапшот лидерборда,
	// не дожидаясь следующей мутации
	wsHub.SetOnConnect(handler.pushSnapshot)

	return handler
}

// HandleConnection обрабатывает входящее WebSocket соединение.
// Игроки не аутентифицируются: канал публичный, подключиться может любой.
func (h *WSHandler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Error upgrading connection: %v", err)
		return
	}

	client := websocket.NewClient(h.wsHub, conn)
	log.Printf("WebSocket: Connection upgraded, ConnectionID: %s", client.ConnectionID)

	client.StartPumps(h.wsManager.HandleMessage)
}

// registerMessageHandlers регистрирует обработчики для различных типов сообщений
func (h *WSHandler) registerMessageHandlers() {
	// Вступление в комнату: data — имя комнаты строкой
	h.wsManager.RegisterHandler(websocket.JOIN_ROOM, func(data json.RawMessage, client *websocket.Client) error {
		var room string
		if err := json.Unmarshal(data, &room); err != nil {
			log.Printf("[WSHandler] Ошибка парсинга %s: %v, Data: %s", websocket.JOIN_ROOM, err, string(data))
			h.wsManager.SendErrorToClient(client, "invalid_format", "Room name must be a string")
			return fmt.Errorf("failed to parse %s event: %w", websocket.JOIN_ROOM, err)
		}

		room = strings.TrimSpace(room)
		if room == "" {
			h.wsManager.SendErrorToClient(client, "invalid_room", "Room name must not be empty")
			return nil
		}

		h.wsHub.JoinRoom(client, room)
		log.Printf("[WSHandler] Client %s joined room %s", client.ConnectionID, room)
		return nil
	})

	// Сообщение в комнату: доставляется только её участникам,
	// включая отправителя
	h.wsManager.RegisterHandler(websocket.SEND_MESSAGE, func(data json.RawMessage, client *websocket.Client) error {
		var msgEvent struct {
			Room    string          `json:"room"`
			Message json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal(data, &msgEvent); err != nil {
			log.Printf("[WSHandler] Ошибка парсинга %s: %v, Data: %s", websocket.SEND_MESSAGE, err, string(data))
			h.wsManager.SendErrorToClient(client, "invalid_format", "Failed to parse send_message event")
			return fmt.Errorf("failed to parse %s event: %w", websocket.SEND_MESSAGE, err)
		}

		if strings.TrimSpace(msgEvent.Room) == "" {
			h.wsManager.SendErrorToClient(client, "invalid_room", "Room name must not be empty")
			return nil
		}

		if err := h.wsManager.BroadcastEventToRoom(msgEvent.Room, websocket.RECEIVE_MESSAGE, map[string]interface{}{
			"message": msgEvent.Message,
		}); err != nil {
			log.Printf("[WSHandler] Ошибка рассылки в комнату %s: %v", msgEvent.Room, err)
			h.wsManager.SendErrorToClient(client, "broadcast_error", err.Error())
		}
		return nil
	})
}

// pushSnapshot отправляет новому клиенту текущий лидерборд
func (h *WSHandler) pushSnapshot(client *websocket.Client) {
	snapshot, err := h.leaderboardService.Snapshot()
	if err != nil {
		log.Printf("[WSHandler] Не удалось получить снапшот для нового клиента %s: %v", client.ConnectionID, err)
		return
	}
	if err := h.wsManager.SendEventToClient(client, websocket.UPDATE_LEADERBOARD, snapshot.Results()); err != nil {
		log.Printf("[WSHandler] Не удалось отправить снапшот клиенту %s: %v", client.ConnectionID, err)
	}
}
