package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/yourusername/brainiac-api/internal/domain/entity"
	apperrors "github.com/yourusername/brainiac-api/internal/pkg/errors"
	"github.com/yourusername/brainiac-api/internal/service/ranking"
)

// Хранилище результатов для offline-деплоя: одна JSON-таблица на профиль,
// ключ — автоинкрементный id. Это кеш, не система записи: любые ошибки
// ввода-вывода логируются и глушатся, сабмит викторины никогда не
// блокируется из-за недоступного диска.

const (
	// MaxRetained — жёсткая верхняя граница хранимых записей.
	// Каждое сохранение деструктивно для записей ниже топ-10 — это
	// намеренное ограничение по месту, а не баг.
	MaxRetained = 10

	storeFileName = "leaderboard.json"
)

// Store — локальное хранилище результатов одного профиля
type Store struct {
	path        string
	rankingOpts ranking.Options
}

// NewStore создает хранилище в указанной директории профиля
func NewStore(dir string, rankingOpts ranking.Options) *Store {
	return &Store{
		path:        filepath.Join(dir, storeFileName),
		rankingOpts: rankingOpts,
	}
}

// SaveResult добавляет результат к сохранённому набору, пересчитывает
// порядок ranking-движком, оставляет топ-10 и сохраняет усечённый набор.
// Недоступное хранилище — не ошибка для вызывающего.
func (s *Store) SaveResult(result entity.PlayerResult) {
	all, err := s.load()
	if err != nil {
		log.Printf("[LocalStore] Хранилище недоступно, результат не сохранён: %v", err)
		return
	}

	if result.ID == 0 {
		result.ID = nextID(all)
	}
	all = append(all, result)

	snapshot := ranking.Rank(all, s.rankingOpts)
	retained := snapshot.Results()
	if len(retained) > MaxRetained {
		retained = retained[:MaxRetained]
	}

	if err := s.persist(retained); err != nil {
		log.Printf("[LocalStore] Не удалось сохранить результаты: %v", err)
	}
}

// GetTopResults возвращает все сохранённые записи в ранжированном порядке.
// Пустое или нечитаемое хранилище — пустой срез, не ошибка.
func (s *Store) GetTopResults() []entity.PlayerResult {
	all, err := s.load()
	if err != nil {
		log.Printf("[LocalStore] Хранилище недоступно, возвращаю пустой список: %v", err)
		return []entity.PlayerResult{}
	}
	return ranking.Rank(all, s.rankingOpts).Results()
}

// SaveAllResults полностью заменяет сохранённый набор — используется после
// локальной мутации (переключение лайка), когда порядок уже известен.
func (s *Store) SaveAllResults(results []entity.PlayerResult) {
	if len(results) > MaxRetained {
		results = results[:MaxRetained]
	}
	if err := s.persist(results); err != nil {
		log.Printf("[LocalStore] Не удалось сохранить результаты: %v", err)
	}
}

// load читает таблицу с диска. Отсутствие файла — пустой набор.
func (s *Store) load() ([]entity.PlayerResult, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, err)
	}

	var results []entity.PlayerResult
	if err := json.Unmarshal(data, &results); err != nil {
		// Повреждённый файл трактуем как недоступное хранилище
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, err)
	}
	return results, nil
}

// persist атомарно записывает таблицу: сначала во временный файл,
// затем rename, чтобы сбой на середине записи не портил данные.
func (s *Store) persist(results []entity.PlayerResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, err)
	}
	return nil
}

// nextID выдаёт следующий автоинкрементный идентификатор записи
func nextID(results []entity.PlayerResult) uint {
	max := uint(0)
	for _, r := range results {
		if r.ID > max {
			max = r.ID
		}
	}
	return max + 1
}
