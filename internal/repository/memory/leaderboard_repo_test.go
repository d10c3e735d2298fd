package memory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/brainiac-api/internal/domain/entity"
	apperrors "github.com/yourusername/brainiac-api/internal/pkg/errors"
)

func newResult(name string, score float64, timeUsed int) *entity.PlayerResult {
	return &entity.PlayerResult{
		Name:     name,
		School:   "X",
		Class:    "SS2",
		Score:    score,
		TimeUsed: timeUsed,
	}
}

func TestUpsert_AssignsSequentialIDs(t *testing.T) {
	repo := NewLeaderboardRepo()

	ada := newResult("Ada", 8, 45)
	bo := newResult("Bo", 9, 60)

	created, err := repo.Upsert(ada)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Upsert(bo)
	require.NoError(t, err)
	assert.True(t, created)

	assert.Equal(t, uint(1), ada.ID)
	assert.Equal(t, uint(2), bo.ID)
}

func TestUpsert_SameIdentityOverwritesInPlace(t *testing.T) {
	// Быстрый двойной сабмит одной идентичности: побеждает последний,
	// запись остаётся ровно одна
	repo := NewLeaderboardRepo()

	first := newResult("Ada", 8, 45)
	_, err := repo.Upsert(first)
	require.NoError(t, err)

	second := newResult("Ada", 10, 50)
	created, err := repo.Upsert(second)
	require.NoError(t, err)
	assert.False(t, created, "перезапись не создаёт новую запись")
	assert.Equal(t, first.ID, second.ID)

	all, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 10.0, all[0].Score)
	assert.Equal(t, 50, all[0].TimeUsed)
}

func TestUpsert_OverwritePreservesLikes(t *testing.T) {
	repo := NewLeaderboardRepo()

	first := newResult("Ada", 8, 45)
	_, err := repo.Upsert(first)
	require.NoError(t, err)

	_, err = repo.SetLike(first.ID, "voter-1", true)
	require.NoError(t, err)

	second := newResult("Ada", 10, 50)
	_, err = repo.Upsert(second)
	require.NoError(t, err)

	got, err := repo.GetByID(first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Likes, "голоса переживают перезапись результата")
}

func TestGetAll_PreservesInsertionOrder(t *testing.T) {
	repo := NewLeaderboardRepo()

	for _, name := range []string{"C", "A", "B"} {
		_, err := repo.Upsert(newResult(name, 5, 30))
		require.NoError(t, err)
	}

	all, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "C", all[0].Name)
	assert.Equal(t, "A", all[1].Name)
	assert.Equal(t, "B", all[2].Name)
}

func TestSetLike_UnknownPlayer(t *testing.T) {
	repo := NewLeaderboardRepo()

	_, err := repo.SetLike(7, "voter-1", true)

	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	all, getErr := repo.GetAll()
	require.NoError(t, getErr)
	assert.Empty(t, all, "лидерборд не изменился")
}

func TestSetLike_CounterNeverNegative(t *testing.T) {
	repo := NewLeaderboardRepo()

	ada := newResult("Ada", 8, 45)
	_, err := repo.Upsert(ada)
	require.NoError(t, err)

	// Анлайки без единого лайка, в любом количестве
	for i := 0; i < 3; i++ {
		got, err := repo.SetLike(ada.ID, "voter-1", false)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Likes)
	}
}

func TestSetLike_IdempotentPerVoter(t *testing.T) {
	repo := NewLeaderboardRepo()

	ada := newResult("Ada", 8, 45)
	_, err := repo.Upsert(ada)
	require.NoError(t, err)

	// Повторный лайк одного зрителя не увеличивает счётчик
	_, err = repo.SetLike(ada.ID, "voter-1", true)
	require.NoError(t, err)
	got, err := repo.SetLike(ada.ID, "voter-1", true)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Likes)

	// Второй зритель — второй голос
	got, err = repo.SetLike(ada.ID, "voter-2", true)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Likes)

	// liked выводится на зрителя, а не глобально
	liked, err := repo.HasLiked(ada.ID, "voter-1")
	require.NoError(t, err)
	assert.True(t, liked)
	liked, err = repo.HasLiked(ada.ID, "voter-3")
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestRoundTrip_FieldsSurviveReadBack(t *testing.T) {
	repo := NewLeaderboardRepo()

	in := &entity.PlayerResult{
		Name:     "Ada",
		School:   "X",
		Class:    "SS2",
		Score:    8.5,
		TimeUsed: 45,
		Avatar:   "https://example.com/a.png",
	}
	_, err := repo.Upsert(in)
	require.NoError(t, err)

	out, err := repo.GetByID(in.ID)
	require.NoError(t, err)
	assert.Equal(t, in.Name, out.Name)
	assert.Equal(t, in.School, out.School)
	assert.Equal(t, in.Class, out.Class)
	assert.Equal(t, in.Score, out.Score)
	assert.Equal(t, in.TimeUsed, out.TimeUsed)
	assert.Equal(t, in.Avatar, out.Avatar)
}

func TestReplaceAll_RestoresSnapshotAndContinuesIDs(t *testing.T) {
	repo := NewLeaderboardRepo()

	err := repo.ReplaceAll([]entity.PlayerResult{
		{ID: 5, Name: "Ada", School: "X", Class: "SS2", Score: 8, TimeUsed: 45},
		{ID: 2, Name: "Bo", School: "Y", Class: "SS1", Score: 9, TimeUsed: 60},
	})
	require.NoError(t, err)

	all, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, uint(5), all[0].ID)

	// Новые записи не конфликтуют с восстановленными ID
	fresh := newResult("Cy", 7, 30)
	_, err = repo.Upsert(fresh)
	require.NoError(t, err)
	assert.Equal(t, uint(6), fresh.ID)
}
