package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azhengyongqin/forkhub/internal/dispatch"
	"github.com/azhengyongqin/forkhub/internal/model"
)

func TestRunModelRoundTrip(t *testing.T) {
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	run := Run{
		RunID:       "run-1",
		WorkType:    "backfill",
		Options:     []string{"20000"},
		Status:      "fail",
		Items:       4,
		Concurrency: 5,
		Failed:      1,
		Flags:       "none",
		Error:       "select backfill: boom",
		StartedAt:   started,
		DurationMs:  1500,
	}

	m := RunToModel(run)
	assert.Equal(t, "20000", m.Options)
	require.NotNil(t, m.Error)
	assert.Equal(t, "dispatch_run", m.TableName())

	assert.Equal(t, run, m.ToRun())
}

func TestRunModelEmptyFields(t *testing.T) {
	m := RunToModel(Run{RunID: "run-2", WorkType: "binaries", Status: "empty"})
	assert.Nil(t, m.Error)
	assert.Equal(t, "", m.Options)

	back := m.ToRun()
	assert.Nil(t, back.Options)
	assert.Equal(t, "", back.Error)
}

func TestListRunsFilterNormalize(t *testing.T) {
	f := ListRunsFilter{Limit: 0, Offset: -3}.normalize()
	assert.Equal(t, 50, f.Limit)
	assert.Equal(t, 0, f.Offset)

	f = ListRunsFilter{Limit: 500}.normalize()
	assert.Equal(t, 50, f.Limit)

	f = ListRunsFilter{Limit: 20, Offset: 40}.normalize()
	assert.Equal(t, 20, f.Limit)
	assert.Equal(t, 40, f.Offset)
}

type memRepo struct {
	runs []Run
	err  error
}

func (m *memRepo) Insert(_ context.Context, r Run) error {
	if m.err != nil {
		return m.err
	}
	m.runs = append(m.runs, r)
	return nil
}

func (m *memRepo) Get(context.Context, string) (*Run, error) { return nil, ErrNotFound }

func (m *memRepo) List(context.Context, ListRunsFilter) ([]Run, error) { return m.runs, nil }

func (m *memRepo) Count(context.Context, ListRunsFilter) (int64, error) { return int64(len(m.runs)), nil }

func TestRecorder(t *testing.T) {
	repo := &memRepo{}
	rec := NewRecorder(repo)

	res := &dispatch.Result{
		RunID:       "run-3",
		WorkType:    model.WorkTypePostProcessNfo,
		Status:      model.RunStatusSuccess,
		Items:       2,
		Concurrency: 3,
		Flags:       dispatch.StageFlags{NFO: true},
		StartedAt:   time.Now(),
		Duration:    2500 * time.Millisecond,
	}
	require.NoError(t, rec.RecordRun(context.Background(), res))
	require.Len(t, repo.runs, 1)

	got := repo.runs[0]
	assert.Equal(t, "run-3", got.RunID)
	assert.Equal(t, "postProcess_nfo", got.WorkType)
	assert.Equal(t, "success", got.Status)
	assert.Equal(t, "nfo", got.Flags)
	assert.Equal(t, int64(2500), got.DurationMs)

	repo.err = errors.New("db down")
	assert.Error(t, rec.RecordRun(context.Background(), res))
}
