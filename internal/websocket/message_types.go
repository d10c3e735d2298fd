package websocket

// Типы сообщений realtime-канала. Имена совпадают с wire-форматом,
// который ожидает фронтенд.
const (
	// JOIN_ROOM — клиент просит добавить себя в комнату чата
	JOIN_ROOM = "join_room"

	// SEND_MESSAGE — клиент отправляет сообщение в комнату
	SEND_MESSAGE = "send_message"

	// RECEIVE_MESSAGE — сервер ретранслирует сообщение участникам комнаты
	RECEIVE_MESSAGE = "receive_message"

	// UPDATE_LEADERBOARD — полный снапшот лидерборда после любого сабмита,
	// рассылается всем подключенным клиентам вне зависимости от комнат
	UPDATE_LEADERBOARD = "update_leaderboard"

	// UPDATE_LIKES — дельта {id, likes} после лайка/анлайка;
	// полный список не пересылается ради экономии трафика
	UPDATE_LIKES = "update_likes"

	// NEW_SCORE — уведомление об одном новом результате
	NEW_SCORE = "new_score"

	// SERVER_ERROR — стандартизированное сообщение об ошибке клиенту
	SERVER_ERROR = "server:error"
)
