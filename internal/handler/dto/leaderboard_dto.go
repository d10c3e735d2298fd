package dto

import (
	"github.com/yourusername/brainiac-api/internal/domain/entity"
	"github.com/yourusername/brainiac-api/internal/service/ranking"
)

// SubmitResultRequest представляет тело POST /leaderboard.
// score и timeUsed — указатели: отсутствующее поле и нулевое значение
// должны различаться при валидации.
type SubmitResultRequest struct {
	Name     string   `json:"name"`
	School   string   `json:"school"`
	Class    string   `json:"class"`
	Score    *float64 `json:"score"`
	TimeUsed *int     `json:"timeUsed"`
	Avatar   string   `json:"avatar"`
}

// LikeRequest представляет тело POST /leaderboard/like.
// Поддерживаются оба исторических варианта: {playerId, liked} и {id}.
type LikeRequest struct {
	ID       uint   `json:"id"`
	PlayerID uint   `json:"playerId"`
	Liked    *bool  `json:"liked"`
	VoterID  string `json:"voter_id"`
}

// TargetID возвращает идентификатор игрока из любого из двух полей
func (r *LikeRequest) TargetID() uint {
	if r.PlayerID != 0 {
		return r.PlayerID
	}
	return r.ID
}

// UnlikeRequest представляет тело POST /leaderboard/unlike
type UnlikeRequest struct {
	ID      uint   `json:"id"`
	VoterID string `json:"voter_id"`
}

// PlayerResponse представляет ответ с одним игроком
type PlayerResponse struct {
	Message string               `json:"message"`
	Player  *entity.PlayerResult `json:"player"`
}

// NewPlayerResponse создает ответ {message, player}
func NewPlayerResponse(message string, player *entity.PlayerResult) PlayerResponse {
	return PlayerResponse{Message: message, Player: player}
}

// NewLeaderboardPage возвращает страницу как плоский массив — клиент
// ожидает именно массив записей, без пагинационной обёртки.
func NewLeaderboardPage(entries []ranking.Entry) []ranking.Entry {
	if entries == nil {
		return []ranking.Entry{}
	}
	return entries
}
