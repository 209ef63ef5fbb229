package memory

import (
	"testing"

	"github.com/iwtcode/linacService/internal/domain/entities"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGetMissing(t *testing.T) {
	repo := NewRepository()
	_, err := repo.Get("A2")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSaveUpsertsAndBumpsRevision(t *testing.T) {
	repo := NewRepository()
	first := &entities.SharedState{ScenarioID: "A2", Payload: `{"a":1}`, Origin: "x"}
	require.NoError(t, repo.Save(first))

	second := &entities.SharedState{ScenarioID: "A2", Payload: `{"a":2}`, Origin: "y"}
	require.NoError(t, repo.Save(second))
	require.True(t, second.UpdatedAt.After(first.UpdatedAt))
	// ревизия хранится с точностью timestamptz
	require.Zero(t, second.UpdatedAt.Nanosecond()%1000)
	require.Equal(t, first.CreatedAt, second.CreatedAt)

	got, err := repo.Get("A2")
	require.NoError(t, err)
	require.Equal(t, `{"a":2}`, got.Payload)
	require.Equal(t, "y", got.Origin)

	all, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestSaveFailing(t *testing.T) {
	repo := NewRepository()
	repo.SetFailing(true)
	require.ErrorIs(t, repo.Save(&entities.SharedState{ScenarioID: "A2"}), ErrUnavailable)
	repo.SetFailing(false)
	require.NoError(t, repo.Save(&entities.SharedState{ScenarioID: "A2"}))
}
