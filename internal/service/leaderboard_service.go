package service

import (
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/yourusername/brainiac-api/internal/domain/entity"
	"github.com/yourusername/brainiac-api/internal/domain/repository"
	apperrors "github.com/yourusername/brainiac-api/internal/pkg/errors"
	"github.com/yourusername/brainiac-api/internal/service/ranking"
	"github.com/yourusername/brainiac-api/internal/websocket"
)

const (
	// Ключ best-effort снапшота лидерборда в Redis
	snapshotCacheKey = "leaderboard:snapshot"

	// Снапшот в кеше живёт сутки; это кеш, а не система записи
	snapshotCacheTTL = 24 * time.Hour
)

// Broadcaster рассылает события realtime-канала.
// Реализуется websocket.Manager.
type Broadcaster interface {
	BroadcastEvent(eventType string, data interface{}) error
}

// LeaderboardService владеет авторитетным набором результатов.
// Все мутации сериализованы мьютексом: каждая выполняется целиком —
// включая рассылку — до начала следующей, как в однопоточном оригинале.
type LeaderboardService struct {
	mu sync.Mutex

	repo        repository.LeaderboardRepository
	cacheRepo   repository.CacheRepository
	broadcaster Broadcaster

	rankingOpts ranking.Options
	pageSize    int
}

// NewLeaderboardService создает новый сервис лидерборда.
// cacheRepo может быть nil — снапшот-кеш тогда отключен.
func NewLeaderboardService(
	repo repository.LeaderboardRepository,
	cacheRepo repository.CacheRepository,
	broadcaster Broadcaster,
	rankingOpts ranking.Options,
	pageSize int,
) *LeaderboardService {
	if pageSize < 1 {
		pageSize = 10
	} else if pageSize > 100 {
		pageSize = 100
	}
	return &LeaderboardService{
		repo:        repo,
		cacheRepo:   cacheRepo,
		broadcaster: broadcaster,
		rankingOpts: rankingOpts,
		pageSize:    pageSize,
	}
}

// PageSize возвращает размер страницы (константа деплоя)
func (s *LeaderboardService) PageSize() int {
	return s.pageSize
}

// SubmitInput — поля сабмита результата. Score и TimeUsed — указатели,
// чтобы отличать отсутствующее поле от нулевого значения.
type SubmitInput struct {
	Name     string
	School   string
	Class    string
	Score    *float64
	TimeUsed *int
	Avatar   string
}

// validate возвращает список отсутствующих полей
func (in *SubmitInput) validate() []string {
	var missing []string
	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(in.School) == "" {
		missing = append(missing, "school")
	}
	if strings.TrimSpace(in.Class) == "" {
		missing = append(missing, "class")
	}
	if in.Score == nil || *in.Score < 0 {
		missing = append(missing, "score")
	}
	if in.TimeUsed == nil || *in.TimeUsed < 0 {
		missing = append(missing, "timeUsed")
	}
	return missing
}

// SubmitResult валидирует и сохраняет результат. Существующая идентичность
// перезаписывается на месте — побеждает последняя обработанная отправка,
// записей на игрока остаётся ровно одна. После мутации всем клиентам
// рассылается полный обновлённый лидерборд.
func (s *LeaderboardService) SubmitResult(input SubmitInput) (*entity.PlayerResult, error) {
	if missing := input.validate(); len(missing) > 0 {
		return nil, &ValidationError{Fields: missing}
	}

	result := &entity.PlayerResult{
		Name:     strings.TrimSpace(input.Name),
		School:   strings.TrimSpace(input.School),
		Class:    strings.TrimSpace(input.Class),
		Score:    *input.Score,
		TimeUsed: *input.TimeUsed,
		Avatar:   input.Avatar,
	}
	if result.Avatar == "" {
		result.Avatar = entity.DeriveAvatar(result.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	created, err := s.repo.Upsert(result)
	if err != nil {
		return nil, err
	}
	if created {
		log.Printf("[Leaderboard] Новый результат: id=%d name=%s score=%.1f time=%d", result.ID, result.Name, result.Score, result.TimeUsed)
	} else {
		log.Printf("[Leaderboard] Перезапись результата: id=%d name=%s score=%.1f time=%d", result.ID, result.Name, result.Score, result.TimeUsed)
	}

	snapshot, err := s.buildSnapshot()
	if err != nil {
		return nil, err
	}
	s.persistSnapshot(snapshot)

	// Рассылка внутри того же логического хода, что и мутация
	s.broadcast(websocket.NEW_SCORE, result)
	s.broadcast(websocket.UPDATE_LEADERBOARD, snapshot.Results())

	return result, nil
}

// ListResults возвращает страницу ранжированного снапшота.
// page < 1 трактуется как 1; выход за границы — пустая страница.
func (s *LeaderboardService) ListResults(page int) ([]ranking.Entry, error) {
	snapshot, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return snapshot.Page(page, s.pageSize), nil
}

// GetResult возвращает один результат по ID
func (s *LeaderboardService) GetResult(id uint) (*entity.PlayerResult, error) {
	return s.repo.GetByID(id)
}

// SetLike ставит или снимает голос зрителя за игрока. Рассылается только
// дельта {id, likes} — лайки не входят в ключ ранжирования, и полный
// список пересылать незачем.
func (s *LeaderboardService) SetLike(playerID uint, voterID string, liked bool) (*entity.PlayerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.repo.SetLike(playerID, voterID, liked)
	if err != nil {
		return nil, err
	}

	s.broadcast(websocket.UPDATE_LIKES, map[string]interface{}{
		"id":    result.ID,
		"likes": result.Likes,
	})

	return result, nil
}

// Snapshot пересчитывает ранжированный лидерборд из авторитетного набора.
// Производное состояние: никогда не хранится, только выводится.
func (s *LeaderboardService) Snapshot() (ranking.Snapshot, error) {
	return s.buildSnapshot()
}

func (s *LeaderboardService) buildSnapshot() (ranking.Snapshot, error) {
	all, err := s.repo.GetAll()
	if err != nil {
		return ranking.Snapshot{}, err
	}
	return ranking.Rank(all, s.rankingOpts), nil
}

// RestoreFromCache опционально восстанавливает набор результатов из
// Redis-снапшота при старте. Ошибки не фатальны — кеш best-effort.
func (s *LeaderboardService) RestoreFromCache() {
	if s.cacheRepo == nil {
		return
	}

	var cached []entity.PlayerResult
	if err := s.cacheRepo.GetJSON(snapshotCacheKey, &cached); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[Leaderboard] Не удалось прочитать снапшот из кеша: %v", err)
		}
		return
	}
	if len(cached) == 0 {
		return
	}

	if err := s.repo.ReplaceAll(cached); err != nil {
		log.Printf("[Leaderboard] Не удалось восстановить снапшот: %v", err)
		return
	}
	log.Printf("[Leaderboard] Восстановлено %d результатов из кеша", len(cached))
}

// persistSnapshot сохраняет снапшот в Redis (best-effort)
func (s *LeaderboardService) persistSnapshot(snapshot ranking.Snapshot) {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.SetJSON(snapshotCacheKey, snapshot.Results(), snapshotCacheTTL); err != nil {
		log.Printf("[Leaderboard] Не удалось закешировать снапшот: %v", err)
	}
}

func (s *LeaderboardService) broadcast(eventType string, data interface{}) {
	if s.broadcaster == nil {
		return
	}
	if err := s.broadcaster.BroadcastEvent(eventType, data); err != nil {
		log.Printf("[Leaderboard] Ошибка рассылки события %s: %v", eventType, err)
	}
}
