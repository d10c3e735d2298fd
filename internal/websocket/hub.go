package websocket

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"
)

// Hub владеет множеством активных соединений и явной картой членства
// в комнатах: room -> множество клиентов. Членство эфемерно и привязано
// к времени жизни соединения — добавление при join_room, удаление при
// disconnect, комната исчезает вместе с последним участником.
//
// Один процесс, один хаб: доставка best-effort, без persistence и replay.
// Переподключившийся клиент получает свежий полный снапшот, а не
// возобновлённую сессию.
type Hub struct {
	mu sync.RWMutex

	// Все активные соединения по ConnectionID
	clients map[string]*Client

	// Явная карта членства: имя комнаты -> множество клиентов
	rooms map[string]map[*Client]struct{}

	// Метрики
	messagesSent int64
	startedAt    time.Time

	// onConnect вызывается после регистрации нового клиента
	// (catch-up: сервер сразу пушит текущий снапшот лидерборда)
	onConnect func(client *Client)
}

// NewHub создает новый хаб
func NewHub() *Hub {
	return &Hub{
		clients:   make(map[string]*Client),
		rooms:     make(map[string]map[*Client]struct{}),
		startedAt: time.Now(),
	}
}

// SetOnConnect устанавливает callback, вызываемый для каждого нового клиента
func (h *Hub) SetOnConnect(fn func(client *Client)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onConnect = fn
}

// RegisterClient добавляет соединение в хаб
func (h *Hub) RegisterClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ConnectionID] = client
	count := len(h.clients)
	onConnect := h.onConnect
	h.mu.Unlock()

	log.Printf("WebSocket: client connected (Conn: %s), total clients: %d", client.ConnectionID, count)

	if onConnect != nil {
		onConnect(client)
	}
}

// UnregisterClient убирает соединение из хаба и из всех комнат.
// Идемпотентна: повторный вызов для того же клиента — no-op.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()

	if _, ok := h.clients[client.ConnectionID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.ConnectionID)

	// Детерминированное удаление из каждой комнаты;
	// пустые комнаты собираются сразу
	for room, members := range h.rooms {
		if _, ok := members[client]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	count := len(h.clients)
	h.mu.Unlock()

	client.CloseSend()
	log.Printf("WebSocket: client disconnected (Conn: %s), total clients: %d", client.ConnectionID, count)
}

// JoinRoom добавляет клиента в комнату; комната создаётся при первом входе.
// Подтверждения сверх успешного выполнения не отправляется.
func (h *Hub) JoinRoom(client *Client, room string) {
	if room == "" {
		return
	}

	h.mu.Lock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[client] = struct{}{}
	h.mu.Unlock()

	log.Printf("WebSocket: client %s joined room %q", client.ConnectionID, room)
}

// InRoom сообщает, состоит ли клиент в комнате
func (h *Hub) InRoom(client *Client, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[room][client]
	return ok
}

// Broadcast отправляет байтовое сообщение всем подключенным клиентам
func (h *Hub) Broadcast(message []byte) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	h.deliver(targets, message)
}

// BroadcastToRoom отправляет байтовое сообщение участникам комнаты.
// Несуществующая комната — no-op.
func (h *Hub) BroadcastToRoom(room string, message []byte) {
	h.mu.RLock()
	members := h.rooms[room]
	targets := make([]*Client, 0, len(members))
	for client := range members {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	h.deliver(targets, message)
}

// BroadcastJSON отправляет структуру JSON всем клиентам
func (h *Hub) BroadcastJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal broadcast message: %w", err)
	}
	h.Broadcast(data)
	return nil
}

// BroadcastJSONToRoom отправляет структуру JSON участникам комнаты
func (h *Hub) BroadcastJSONToRoom(room string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal room message: %w", err)
	}
	h.BroadcastToRoom(room, data)
	return nil
}

// SendJSONToConnection отправляет структуру JSON конкретному соединению
func (h *Hub) SendJSONToConnection(connectionID string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	h.mu.RLock()
	client, ok := h.clients[connectionID]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("connection %s not found", connectionID)
	}

	h.deliver([]*Client{client}, data)
	return nil
}

// deliver раскладывает сообщение по буферам клиентов; слишком медленные
// клиенты (повторное переполнение буфера) отключаются.
func (h *Hub) deliver(targets []*Client, message []byte) {
	var slow []*Client
	sent := 0

	for _, client := range targets {
		if client.trySend(message) {
			sent++
		} else if client.shouldDisconnect() {
			slow = append(slow, client)
		}
	}

	h.mu.Lock()
	h.messagesSent += int64(sent)
	h.mu.Unlock()

	for _, client := range slow {
		log.Printf("WebSocket: dropping slow client (Conn: %s)", client.ConnectionID)
		h.UnregisterClient(client)
	}
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomCount возвращает количество непустых комнат
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// RoomSize возвращает количество участников комнаты
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// GetMetrics возвращает текущие метрики хаба
func (h *Hub) GetMetrics() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return map[string]interface{}{
		"client_count":  len(h.clients),
		"room_count":    len(h.rooms),
		"messages_sent": h.messagesSent,
		"uptime_sec":    int64(time.Since(h.startedAt).Seconds()),
	}
}
