package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/brainiac-api/internal/domain/entity"
)

func result(id uint, name string, score float64, timeUsed int) entity.PlayerResult {
	return entity.PlayerResult{
		ID:       id,
		Name:     name,
		School:   "X",
		Class:    "SS2",
		Score:    score,
		TimeUsed: timeUsed,
	}
}

func TestRank_OrdersByScoreDescThenTimeAsc(t *testing.T) {
	// Arrange: Ada набрала 8 за 45 сек, Bo — 9 за 60 сек
	input := []entity.PlayerResult{
		result(1, "Ada", 8, 45),
		result(2, "Bo", 9, 60),
	}

	// Act
	snapshot := Rank(input, DefaultOptions())

	// Assert: Bo первый — счёт важнее времени
	require.Len(t, snapshot.Entries, 2)
	assert.Equal(t, "Bo", snapshot.Entries[0].Name)
	assert.Equal(t, "Ada", snapshot.Entries[1].Name)
	assert.Equal(t, 1, snapshot.Entries[0].Rank)
	assert.Equal(t, 2, snapshot.Entries[1].Rank)
}

func TestRank_EqualScoreFasterTimeWins(t *testing.T) {
	input := []entity.PlayerResult{
		result(1, "Slow", 5, 30),
		result(2, "Fast", 5, 20),
	}

	snapshot := Rank(input, DefaultOptions())

	require.Len(t, snapshot.Entries, 2)
	assert.Equal(t, "Fast", snapshot.Entries[0].Name, "при равном счёте первым идёт меньший timeUsed")
}

func TestRank_StableForFullTies(t *testing.T) {
	// Полностью равные записи сохраняют порядок вставки
	input := []entity.PlayerResult{
		result(1, "First", 7, 40),
		result(2, "Second", 7, 40),
		result(3, "Third", 7, 40),
	}

	snapshot := Rank(input, DefaultOptions())

	require.Len(t, snapshot.Entries, 3)
	assert.Equal(t, uint(1), snapshot.Entries[0].ID)
	assert.Equal(t, uint(2), snapshot.Entries[1].ID)
	assert.Equal(t, uint(3), snapshot.Entries[2].ID)
}

func TestRank_FractionalScores(t *testing.T) {
	// Подсказки дают дробные 0.5 — сравнение обязано быть вещественным
	input := []entity.PlayerResult{
		result(1, "Whole", 8, 30),
		result(2, "Half", 8.5, 30),
	}

	snapshot := Rank(input, DefaultOptions())

	assert.Equal(t, "Half", snapshot.Entries[0].Name)
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	input := []entity.PlayerResult{
		result(1, "Ada", 1, 10),
		result(2, "Bo", 9, 10),
	}

	Rank(input, DefaultOptions())

	assert.Equal(t, uint(1), input[0].ID, "вход не должен модифицироваться")
	assert.Equal(t, uint(2), input[1].ID)
}

func TestRank_DedupByIdentityKeepsBestRanked(t *testing.T) {
	// Два результата одного игрока: выживает лучший по рангу
	input := []entity.PlayerResult{
		result(1, "Ada", 8, 45),
		result(2, "Ada", 10, 50),
		result(3, "Bo", 9, 60),
	}

	snapshot := Rank(input, Options{DedupByIdentity: true, StarThresholds: PercentageThresholds()})

	require.Len(t, snapshot.Entries, 2)
	assert.Equal(t, uint(2), snapshot.Entries[0].ID, "для Ada остаётся запись со score=10")
	assert.Equal(t, "Bo", snapshot.Entries[1].Name)
}

func TestRank_WithoutDedupKeepsDuplicates(t *testing.T) {
	input := []entity.PlayerResult{
		result(1, "Ada", 8, 45),
		result(2, "Ada", 10, 50),
	}

	snapshot := Rank(input, DefaultOptions())

	assert.Len(t, snapshot.Entries, 2, "ранние поколения лидерборда дубликаты не схлопывали")
}

func TestStars_PercentageThresholds(t *testing.T) {
	thresholds := PercentageThresholds()

	assert.Equal(t, 5, Stars(95, thresholds))
	assert.Equal(t, 5, Stars(90, thresholds))
	assert.Equal(t, 4, Stars(70, thresholds))
	assert.Equal(t, 3, Stars(50, thresholds))
	assert.Equal(t, 2, Stars(30, thresholds))
	assert.Equal(t, 1, Stars(29.5, thresholds))
	assert.Equal(t, 1, Stars(0, thresholds))
}

func TestStars_QuestionCountThresholds(t *testing.T) {
	thresholds := QuestionCountThresholds()

	assert.Equal(t, 5, Stars(20, thresholds))
	assert.Equal(t, 4, Stars(15, thresholds))
	assert.Equal(t, 3, Stars(10, thresholds))
	assert.Equal(t, 2, Stars(5, thresholds))
	assert.Equal(t, 1, Stars(4.5, thresholds))
}

func TestSnapshot_Top3AndRemaining(t *testing.T) {
	input := []entity.PlayerResult{
		result(1, "A", 10, 1),
		result(2, "B", 9, 1),
		result(3, "C", 8, 1),
		result(4, "D", 7, 1),
		result(5, "E", 6, 1),
	}

	snapshot := Rank(input, DefaultOptions())

	top := snapshot.Top3()
	rest := snapshot.Remaining()
	require.Len(t, top, 3)
	require.Len(t, rest, 2)
	assert.Equal(t, "A", top[0].Name)
	assert.Equal(t, "D", rest[0].Name)

	// Обе проекции выводятся из одного снапшота
	assert.Equal(t, snapshot.Entries[3], rest[0])
}

func TestSnapshot_Top3FewerEntries(t *testing.T) {
	snapshot := Rank([]entity.PlayerResult{result(1, "A", 1, 1)}, DefaultOptions())

	assert.Len(t, snapshot.Top3(), 1)
	assert.Empty(t, snapshot.Remaining())
}

func TestSnapshot_Page(t *testing.T) {
	var input []entity.PlayerResult
	for i := 1; i <= 25; i++ {
		input = append(input, result(uint(i), "P", float64(100-i), i))
	}
	snapshot := Rank(input, DefaultOptions())

	// Обычная страница
	page2 := snapshot.Page(2, 10)
	require.Len(t, page2, 10)
	assert.Equal(t, 11, page2[0].Rank)

	// Последняя неполная страница
	page3 := snapshot.Page(3, 10)
	assert.Len(t, page3, 5)

	// page < 1 трактуется как первая страница
	assert.Equal(t, snapshot.Page(1, 10), snapshot.Page(0, 10))
	assert.Equal(t, snapshot.Page(1, 10), snapshot.Page(-3, 10))

	// Выход за границы — пустой срез, не ошибка
	assert.Empty(t, snapshot.Page(99, 10))
}

func TestRank_Idempotent(t *testing.T) {
	input := []entity.PlayerResult{
		result(1, "Ada", 8, 45),
		result(2, "Bo", 9, 60),
		result(3, "Cy", 9, 30),
	}

	first := Rank(input, DefaultOptions())
	second := Rank(input, DefaultOptions())

	assert.Equal(t, first, second, "повторное ранжирование того же входа даёт идентичный результат")
}
