package localstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/brainiac-api/internal/domain/entity"
	"github.com/yourusername/brainiac-api/internal/service/ranking"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), ranking.DefaultOptions())
}

func localResult(name string, score float64, timeUsed int) entity.PlayerResult {
	return entity.PlayerResult{
		Name:     name,
		School:   "X",
		Class:    "SS2",
		Score:    score,
		TimeUsed: timeUsed,
	}
}

func TestSaveResult_AssignsIDAndPersists(t *testing.T) {
	store := newStore(t)

	store.SaveResult(localResult("Ada", 8, 45))
	store.SaveResult(localResult("Bo", 9, 60))

	top := store.GetTopResults()
	require.Len(t, top, 2)
	assert.Equal(t, "Bo", top[0].Name, "чтение отдаёт ранжированный порядок")
	assert.NotZero(t, top[0].ID)
	assert.NotZero(t, top[1].ID)
	assert.NotEqual(t, top[0].ID, top[1].ID)
}

func TestSaveResult_TruncatesToTopTen(t *testing.T) {
	// Кап в 10 записей: записи ниже топ-10 уничтожаются при каждом сохранении
	store := newStore(t)

	for i := 0; i < 15; i++ {
		store.SaveResult(localResult("P", float64(i), 30))
	}

	top := store.GetTopResults()
	require.Len(t, top, MaxRetained)

	// Выживают 10 лучших: счёты 14..5
	assert.Equal(t, 14.0, top[0].Score)
	assert.Equal(t, 5.0, top[len(top)-1].Score)
}

func TestGetTopResults_EmptyStore(t *testing.T) {
	store := newStore(t)

	top := store.GetTopResults()

	assert.NotNil(t, top)
	assert.Empty(t, top)
}

func TestGetTopResults_Idempotent(t *testing.T) {
	store := newStore(t)
	store.SaveResult(localResult("Ada", 8, 45))
	store.SaveResult(localResult("Bo", 8, 30))

	first := store.GetTopResults()
	second := store.GetTopResults()

	assert.Equal(t, first, second)
}

func TestGetTopResults_CorruptFileDegradesToEmpty(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, ranking.DefaultOptions())
	require.NoError(t, os.WriteFile(filepath.Join(dir, storeFileName), []byte("not json"), 0o644))

	top := store.GetTopResults()

	assert.Empty(t, top, "повреждённое хранилище — пустой список, не ошибка")
}

func TestSaveResult_UnavailableStorageIsSilent(t *testing.T) {
	// Директории нет — сохранение деградирует до no-op без паники
	store := NewStore(filepath.Join(t.TempDir(), "missing", "deep"), ranking.DefaultOptions())

	store.SaveResult(localResult("Ada", 8, 45))

	assert.Empty(t, store.GetTopResults())
}

func TestSaveAllResults_BulkReplace(t *testing.T) {
	store := newStore(t)
	store.SaveResult(localResult("Ada", 8, 45))

	// Локальный лайк-тогл: пересохраняем набор без пересчёта ранжирования
	updated := store.GetTopResults()
	updated[0].Likes = 3
	updated[0].Liked = true
	store.SaveAllResults(updated)

	top := store.GetTopResults()
	require.Len(t, top, 1)
	assert.Equal(t, 3, top[0].Likes)
	assert.True(t, top[0].Liked)
}
