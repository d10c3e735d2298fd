package repository

import (
	"github.com/yourusername/brainiac-api/internal/domain/entity"
)

// LeaderboardRepository определяет методы для работы с авторитетным
// набором результатов. Реализации: in-memory (по умолчанию) и postgres.
//
// Likes хранятся как множество голосов voter_id на каждого игрока;
// реализация обязана возвращать записи с уже посчитанным полем Likes.
type LeaderboardRepository interface {
	// Upsert сохраняет результат. Если запись с тем же ключом идентичности
	// уже существует — перезаписывает её score/timeUsed на месте (побеждает
	// последняя отправка), сохраняя ID и накопленные голоса.
	// Возвращает true, если была создана новая запись.
	Upsert(result *entity.PlayerResult) (bool, error)

	// GetByID возвращает результат по ID или apperrors.ErrNotFound.
	GetByID(id uint) (*entity.PlayerResult, error)

	// GetAll возвращает все результаты в порядке вставки (без ранжирования —
	// порядок выдачи определяет ranking-движок).
	GetAll() ([]entity.PlayerResult, error)

	// SetLike добавляет или убирает голос voterID за игрока playerID.
	// Повторный лайк от того же зрителя и анлайк без лайка — no-op.
	// Возвращает запись с обновлённым счётчиком или apperrors.ErrNotFound.
	SetLike(playerID uint, voterID string, liked bool) (*entity.PlayerResult, error)

	// HasLiked сообщает, голосовал ли зритель за игрока.
	HasLiked(playerID uint, voterID string) (bool, error)

	// ReplaceAll полностью заменяет набор результатов (восстановление
	// снапшота из кеша при старте). Голоса записей не затрагиваются.
	ReplaceAll(results []entity.PlayerResult) error
}
