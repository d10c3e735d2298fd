package postgres

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/brainiac-api/internal/domain/entity"
	apperrors "github.com/yourusername/brainiac-api/internal/pkg/errors"
)

// LeaderboardRepo реализует repository.LeaderboardRepository поверх PostgreSQL.
// Durable-вариант авторитетного хранилища; выбирается конфигурацией
// leaderboard.store=postgres.
type LeaderboardRepo struct {
	db *gorm.DB
}

// NewLeaderboardRepo создает новый PostgreSQL репозиторий лидерборда
func NewLeaderboardRepo(db *gorm.DB) *LeaderboardRepo {
	return &LeaderboardRepo{db: db}
}

// Upsert сохраняет результат; существующая идентичность (name+school+class,
// без учёта регистра) перезаписывается на месте.
func (r *LeaderboardRepo) Upsert(result *entity.PlayerResult) (bool, error) {
	created := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing entity.PlayerResult
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("LOWER(TRIM(name)) = ? AND LOWER(TRIM(school)) = ? AND LOWER(TRIM(class)) = ?",
				normalized(result.Name), normalized(result.School), normalized(result.Class)).
			First(&existing).Error

		if err == nil {
			updates := map[string]interface{}{
				"score":     result.Score,
				"time_used": result.TimeUsed,
			}
			if result.Avatar != "" {
				updates["avatar"] = result.Avatar
			}
			if err := tx.Model(&existing).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update player result: %w", err)
			}
			result.ID = existing.ID
			result.CreatedAt = existing.CreatedAt
			return nil
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Create(result).Error; err != nil {
			return fmt.Errorf("failed to create player result: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}

	result.Likes, err = r.countLikes(result.ID)
	return created, err
}

// GetByID возвращает запись с посчитанными лайками
func (r *LeaderboardRepo) GetByID(id uint) (*entity.PlayerResult, error) {
	var result entity.PlayerResult
	if err := r.db.First(&result, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	likes, err := r.countLikes(id)
	if err != nil {
		return nil, err
	}
	result.Likes = likes
	return &result, nil
}

// GetAll возвращает все записи в порядке вставки (по возрастанию id)
// с посчитанными лайками одним запросом.
func (r *LeaderboardRepo) GetAll() ([]entity.PlayerResult, error) {
	var results []entity.PlayerResult
	if err := r.db.Order("id ASC").Find(&results).Error; err != nil {
		return nil, err
	}

	// Likes исключены из маппинга gorm, подсчитываем отдельным запросом
	type likeCount struct {
		PlayerID uint
		Count    int
	}
	var counts []likeCount
	err := r.db.Model(&entity.LikeVote{}).
		Select("player_id, COUNT(*) AS count").
		Group("player_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	byPlayer := make(map[uint]int, len(counts))
	for _, c := range counts {
		byPlayer[c.PlayerID] = c.Count
	}
	for i := range results {
		results[i].Likes = byPlayer[results[i].ID]
	}
	return results, nil
}

// SetLike добавляет или убирает голос зрителя за игрока
func (r *LeaderboardRepo) SetLike(playerID uint, voterID string, liked bool) (*entity.PlayerResult, error) {
	var result entity.PlayerResult
	if err := r.db.First(&result, playerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	if liked {
		vote := entity.LikeVote{PlayerID: playerID, VoterID: voterID}
		// Повторный лайк того же зрителя — no-op благодаря уникальному индексу
		err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&vote).Error
		if err != nil {
			return nil, fmt.Errorf("failed to store like vote: %w", err)
		}
	} else {
		err := r.db.Where("player_id = ? AND voter_id = ?", playerID, voterID).
			Delete(&entity.LikeVote{}).Error
		if err != nil {
			return nil, fmt.Errorf("failed to remove like vote: %w", err)
		}
	}

	likes, err := r.countLikes(playerID)
	if err != nil {
		return nil, err
	}
	result.Likes = likes
	result.Liked = liked
	return &result, nil
}

// HasLiked сообщает, голосовал ли зритель за игрока
func (r *LeaderboardRepo) HasLiked(playerID uint, voterID string) (bool, error) {
	var playerCount int64
	if err := r.db.Model(&entity.PlayerResult{}).Where("id = ?", playerID).Count(&playerCount).Error; err != nil {
		return false, err
	}
	if playerCount == 0 {
		return false, apperrors.ErrNotFound
	}

	var count int64
	err := r.db.Model(&entity.LikeVote{}).
		Where("player_id = ? AND voter_id = ?", playerID, voterID).
		Count(&count).Error
	return count > 0, err
}

// ReplaceAll полностью заменяет набор результатов
func (r *LeaderboardRepo) ReplaceAll(results []entity.PlayerResult) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&entity.PlayerResult{}).Error; err != nil {
			return err
		}
		if len(results) == 0 {
			return nil
		}
		return tx.Create(&results).Error
	})
}

func (r *LeaderboardRepo) countLikes(playerID uint) (int, error) {
	var count int64
	err := r.db.Model(&entity.LikeVote{}).Where("player_id = ?", playerID).Count(&count).Error
	return int(count), err
}

// normalized должна совпадать с нормализацией entity.PlayerResult.IdentityKey
func normalized(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
