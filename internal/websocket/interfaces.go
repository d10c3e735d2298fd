package websocket

// HubInterface объединяет возможности хаба для Manager и обработчиков.
// Это каноническое определение интерфейса хаба.
type HubInterface interface {
	// BroadcastJSON отправляет структуру JSON всем подключенным клиентам
	BroadcastJSON(v interface{}) error

	// BroadcastJSONToRoom отправляет структуру JSON участникам комнаты
	BroadcastJSONToRoom(room string, v interface{}) error

	// SendJSONToConnection отправляет структуру JSON конкретному соединению
	SendJSONToConnection(connectionID string, v interface{}) error

	// JoinRoom добавляет клиента в комнату (комната создаётся неявно)
	JoinRoom(client *Client, room string)

	// ClientCount возвращает количество подключенных клиентов
	ClientCount() int

	// RoomCount возвращает количество непустых комнат
	RoomCount() int

	// GetMetrics возвращает метрики хаба
	GetMetrics() map[string]interface{}
}
