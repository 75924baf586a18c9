package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ar-rehman786/Axis-trade-market/internal/model"
)

func TestMemoryStore_CreateAndGet(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Create(&model.Job{ID: "a", Status: model.JobStatusPending}))

	got, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPending, got.Status)
}

func TestMemoryStore_DuplicateID(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Create(&model.Job{ID: "a"}))
	assert.Error(t, s.Create(&model.Job{ID: "a"}))
}

func TestMemoryStore_GetUnknown(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Create(&model.Job{
		ID:     "a",
		Counts: &model.JobCounts{TotalRows: 1, Feeds: map[string]int{"x": 1}},
	}))

	snap, err := s.Get("a")
	require.NoError(t, err)
	snap.Counts.TotalRows = 99
	snap.Counts.Feeds["x"] = 99

	fresh, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.Counts.TotalRows)
	assert.Equal(t, 1, fresh.Counts.Feeds["x"])
}

func TestMemoryStore_UpdateUnderLock(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Create(&model.Job{ID: "a", Counts: &model.JobCounts{}}))

	require.NoError(t, s.Update("a", func(j *model.Job) {
		j.Counts.ProcessedRows = 7
		j.Progress = 42
	}))

	got, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 7, got.Counts.ProcessedRows)
	assert.Equal(t, 42.0, got.Progress)

	assert.ErrorIs(t, s.Update("nope", func(*model.Job) {}), ErrNotFound)
}
