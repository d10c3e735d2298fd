package memory

import (
	"sync"

	"github.com/yourusername/brainiac-api/internal/domain/entity"
	apperrors "github.com/yourusername/brainiac-api/internal/pkg/errors"
)

// LeaderboardRepo реализует repository.LeaderboardRepository в памяти.
// Авторитетный набор результатов для single-process деплоя.
//
// Оригинальный однопоточный сервер получал атомарность мутаций бесплатно;
// здесь тот же эффект даёт мьютекс: каждая мутация выполняется целиком
// до начала следующей.
type LeaderboardRepo struct {
	mu sync.RWMutex

	// order хранит ID в порядке вставки — стабильная сортировка
	// ranking-движка опирается на этот порядок при полном равенстве.
	order   []uint
	results map[uint]*entity.PlayerResult

	// votes: playerID -> множество voterID. likes = размер множества.
	votes map[uint]map[string]struct{}

	// byIdentity: ключ идентичности -> ID записи (одна запись на игрока)
	byIdentity map[string]uint

	nextID uint
}

// NewLeaderboardRepo создает новый in-memory репозиторий лидерборда
func NewLeaderboardRepo() *LeaderboardRepo {
	return &LeaderboardRepo{
		results:    make(map[uint]*entity.PlayerResult),
		votes:      make(map[uint]map[string]struct{}),
		byIdentity: make(map[string]uint),
		nextID:     1,
	}
}

// Upsert сохраняет результат; существующая идентичность перезаписывается
// на месте (score/timeUsed), голоса и ID сохраняются.
func (r *LeaderboardRepo) Upsert(result *entity.PlayerResult) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := result.IdentityKey()
	if existingID, ok := r.byIdentity[key]; ok {
		existing := r.results[existingID]
		existing.Score = result.Score
		existing.TimeUsed = result.TimeUsed
		if result.Avatar != "" {
			existing.Avatar = result.Avatar
		}
		*result = *existing
		result.Likes = len(r.votes[existingID])
		return false, nil
	}

	result.ID = r.nextID
	r.nextID++
	result.Likes = 0
	result.Liked = false

	stored := *result
	r.results[stored.ID] = &stored
	r.order = append(r.order, stored.ID)
	r.byIdentity[key] = stored.ID
	return true, nil
}

// GetByID возвращает копию записи с посчитанными лайками
func (r *LeaderboardRepo) GetByID(id uint) (*entity.PlayerResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.results[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	result := *stored
	result.Likes = len(r.votes[id])
	return &result, nil
}

// GetAll возвращает копии всех записей в порядке вставки
func (r *LeaderboardRepo) GetAll() ([]entity.PlayerResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]entity.PlayerResult, 0, len(r.order))
	for _, id := range r.order {
		result := *r.results[id]
		result.Likes = len(r.votes[id])
		all = append(all, result)
	}
	return all, nil
}

// SetLike добавляет или убирает голос зрителя. Счётчик не может уйти
// ниже нуля: анлайк несуществующего голоса — no-op.
func (r *LeaderboardRepo) SetLike(playerID uint, voterID string, liked bool) (*entity.PlayerResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.results[playerID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}

	voters, ok := r.votes[playerID]
	if !ok {
		voters = make(map[string]struct{})
		r.votes[playerID] = voters
	}

	if liked {
		voters[voterID] = struct{}{}
	} else {
		delete(voters, voterID)
	}

	result := *stored
	result.Likes = len(voters)
	result.Liked = liked
	return &result, nil
}

// HasLiked сообщает, есть ли голос зрителя за игрока
func (r *LeaderboardRepo) HasLiked(playerID uint, voterID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.results[playerID]; !ok {
		return false, apperrors.ErrNotFound
	}
	_, liked := r.votes[playerID][voterID]
	return liked, nil
}

// ReplaceAll восстанавливает набор результатов (например, из снапшота
// в Redis при старте). Порядок среза становится порядком вставки.
func (r *LeaderboardRepo) ReplaceAll(results []entity.PlayerResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.order = r.order[:0]
	r.results = make(map[uint]*entity.PlayerResult, len(results))
	r.byIdentity = make(map[string]uint, len(results))
	maxID := uint(0)

	for i := range results {
		stored := results[i]
		if stored.ID == 0 {
			stored.ID = r.nextID + uint(i)
		}
		if stored.ID > maxID {
			maxID = stored.ID
		}
		r.results[stored.ID] = &stored
		r.order = append(r.order, stored.ID)
		r.byIdentity[stored.IdentityKey()] = stored.ID
	}

	if maxID >= r.nextID {
		r.nextID = maxID + 1
	}
	return nil
}
