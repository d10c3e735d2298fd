package ranking

import (
	"sort"

	"github.com/yourusername/brainiac-api/internal/domain/entity"
)

// Единственное место, где живёт логика сортировки и рейтинга лидерборда.
// Каждое представление (сервер, локальное хранилище, клиент) детерминированно
// выводит свой порядок из одного и того же входа этим движком.

// StarThreshold задаёт один порог звёздного рейтинга: при score >= MinScore
// игрок получает Stars звёзд. Пороги проверяются сверху вниз.
type StarThreshold struct {
	MinScore float64
	Stars    int
}

// PercentageThresholds возвращает таблицу порогов для викторин
// с процентным счётом (0..100).
func PercentageThresholds() []StarThreshold {
	return []StarThreshold{
		{MinScore: 90, Stars: 5},
		{MinScore: 70, Stars: 4},
		{MinScore: 50, Stars: 3},
		{MinScore: 30, Stars: 2},
	}
}

// QuestionCountThresholds возвращает таблицу порогов для викторин
// с фиксированным числом вопросов (счёт = количество правильных ответов).
func QuestionCountThresholds() []StarThreshold {
	return []StarThreshold{
		{MinScore: 20, Stars: 5},
		{MinScore: 15, Stars: 4},
		{MinScore: 10, Stars: 3},
		{MinScore: 5, Stars: 2},
	}
}

// Options параметризует ранжирование. Разные поколения лидерборда
// отличались только дедупликацией и таблицей порогов, поэтому оба
// параметра вынесены в конфигурацию, а не зашиты в код.
type Options struct {
	// DedupByIdentity оставляет одну запись на реального игрока
	// (ключ name+school+class); выживает лучшая по рангу запись.
	DedupByIdentity bool

	// StarThresholds — таблица порогов звёздного рейтинга.
	// Пустая таблица означает 1 звезду для любого счёта.
	StarThresholds []StarThreshold
}

// DefaultOptions возвращает параметры по умолчанию: без дедупликации,
// процентная шкала звёзд.
func DefaultOptions() Options {
	return Options{
		DedupByIdentity: false,
		StarThresholds:  PercentageThresholds(),
	}
}

// Entry — одна позиция итогового снапшота.
type Entry struct {
	entity.PlayerResult
	Rank  int `json:"rank"`
	Stars int `json:"stars"`
}

// Snapshot — упорядоченный лидерборд, выведенный из набора результатов.
// Производное состояние: снапшот нигде не хранится, только пересчитывается.
type Snapshot struct {
	Entries []Entry `json:"entries"`
}

// Stars возвращает количество звёзд для счёта по таблице порогов.
func Stars(score float64, thresholds []StarThreshold) int {
	for _, t := range thresholds {
		if score >= t.MinScore {
			return t.Stars
		}
	}
	return 1
}

// Rank превращает неупорядоченный набор результатов в снапшот:
// стабильная сортировка по score (убывание), затем timeUsed (возрастание);
// равные записи сохраняют порядок вставки. Вход не модифицируется.
func Rank(results []entity.PlayerResult, opts Options) Snapshot {
	ordered := make([]entity.PlayerResult, len(results))
	copy(ordered, results)

	// Счёт сравнивается как float64: подсказки дают дробные 0.5.
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		return ordered[i].TimeUsed < ordered[j].TimeUsed
	})

	if opts.DedupByIdentity {
		seen := make(map[string]struct{}, len(ordered))
		deduped := ordered[:0]
		for _, r := range ordered {
			key := r.IdentityKey()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			deduped = append(deduped, r)
		}
		ordered = deduped
	}

	entries := make([]Entry, len(ordered))
	for i, r := range ordered {
		entries[i] = Entry{
			PlayerResult: r,
			Rank:         i + 1,
			Stars:        Stars(r.Score, opts.StarThresholds),
		}
	}

	return Snapshot{Entries: entries}
}

// TopN возвращает не более n верхних записей снапшота в исходном порядке.
func (s Snapshot) TopN(n int) []Entry {
	if n < 0 {
		n = 0
	}
	if n > len(s.Entries) {
		n = len(s.Entries)
	}
	return s.Entries[:n]
}

// Top3 — проекция "тройка победителей". Вторая проекция того же снапшота,
// не отдельная сущность.
func (s Snapshot) Top3() []Entry {
	return s.TopN(3)
}

// Remaining возвращает записи после тройки победителей.
func (s Snapshot) Remaining() []Entry {
	if len(s.Entries) <= 3 {
		return nil
	}
	return s.Entries[3:]
}

// Page возвращает страницу снапшота простым срезом по смещению.
// page < 1 трактуется как page = 1; выход за границы — пустой срез.
func (s Snapshot) Page(page, pageSize int) []Entry {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		return nil
	}
	offset := (page - 1) * pageSize
	if offset >= len(s.Entries) {
		return []Entry{}
	}
	end := offset + pageSize
	if end > len(s.Entries) {
		end = len(s.Entries)
	}
	return s.Entries[offset:end]
}

// Results возвращает снапшот как плоский список результатов
// (для сериализации в формате, совместимом с клиентом).
func (s Snapshot) Results() []entity.PlayerResult {
	results := make([]entity.PlayerResult, len(s.Entries))
	for i, e := range s.Entries {
		results[i] = e.PlayerResult
	}
	return results
}
