package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azhengyongqin/forkhub/internal/model"
)

func TestDescribe(t *testing.T) {
	infos := Describe()
	require.Len(t, infos, len(model.AllWorkTypes()))

	byType := make(map[model.WorkType]WorkTypeInfo, len(infos))
	for i, info := range infos {
		assert.Equal(t, model.AllWorkTypes()[i], info.WorkType)
		byType[info.WorkType] = info
	}

	assert.Equal(t, WorkTypeInfo{
		WorkType: model.WorkTypeBackfill,
		Setting:  "backfillthreads",
		Script:   "backfill.php",
	}, byType[model.WorkTypeBackfill])

	tv := byType[model.WorkTypePostProcessTV]
	assert.True(t, tv.Gated)
	assert.Equal(t, "tv", tv.Flag)
	assert.Equal(t, "maxrageprocessed", tv.Setting)

	add := byType[model.WorkTypePostProcessAdditional]
	assert.True(t, add.Gated)
	assert.Equal(t, "additional", add.Flag)

	sha := byType[model.WorkTypePostProcessSharing]
	assert.True(t, sha.Direct)
	assert.False(t, sha.Gated)
	assert.Empty(t, sha.Setting)
}

func TestStageFlags_AtMostOnePerType(t *testing.T) {
	for wt, e := range registry {
		if e.flag == nil {
			continue
		}
		var f StageFlags
		e.flag(&f)
		assert.Equal(t, 1, f.Count(), wt)
	}
}

func TestValidateOptions(t *testing.T) {
	assert.NoError(t, ValidateOptions(model.WorkTypeBackfill, nil))
	assert.NoError(t, ValidateOptions(model.WorkTypeBackfill, []string{"backfill_target"}))
	assert.NoError(t, ValidateOptions(model.WorkTypeBackfill, []string{"20000"}))
	assert.ErrorIs(t, ValidateOptions(model.WorkTypeBackfill, []string{"1; DROP TABLE groups"}), ErrInvalidColumn)
	assert.NoError(t, ValidateOptions(model.WorkTypePostProcessSharing, []string{"anything"}))
	assert.ErrorIs(t, ValidateOptions("bogus", nil), model.ErrUnknownWorkType)
}
