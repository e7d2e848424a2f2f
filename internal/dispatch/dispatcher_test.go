package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azhengyongqin/forkhub/internal/lock"
	"github.com/azhengyongqin/forkhub/internal/model"
	"github.com/azhengyongqin/forkhub/internal/testsupport"
)

type harness struct {
	db       *testsupport.DB
	log      *eventLog
	opener   *wrappingOpener
	engines  *engineFactory
	runner   *fakeRunner
	post     *fakePost
	dialer   *fakeDialer
	recorder *recorder
	tracker  *tracker
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testsupport.MustOpenDB(t)
	log := &eventLog{}
	return &harness{
		db:       db,
		log:      log,
		opener:   &wrappingOpener{inner: db.Opener(), log: log},
		engines:  &engineFactory{log: log},
		runner:   &fakeRunner{},
		post:     &fakePost{log: log},
		dialer:   &fakeDialer{log: log},
		recorder: &recorder{},
		tracker:  &tracker{},
	}
}

func (h *harness) dispatcher(locker lock.Locker) *Dispatcher {
	return New(Deps{
		Opener:    h.opener,
		Runner:    h.runner,
		Stages:    NewStages(h.post, h.dialer),
		NewEngine: h.engines.New,
		Locker:    locker,
		Recorder:  h.recorder,
		Tracker:   h.tracker,
	})
}

func TestDispatch_BackfillThreadsSetsConcurrency(t *testing.T) {
	h := newHarness(t)
	for _, name := range []string{"g1", "g2", "g3"} {
		h.db.AddGroup(name, false, true)
	}
	h.db.SetSetting("backfillthreads", "5")

	res, err := h.dispatcher(nil).Dispatch(context.Background(), model.WorkTypeBackfill, nil)
	require.NoError(t, err)

	engine := h.engines.last()
	require.NotNil(t, engine)
	assert.Equal(t, []int{5}, engine.setCalls)
	assert.Equal(t, 5, res.Concurrency)
	assert.Equal(t, 3, res.Items)
	assert.Equal(t, model.RunStatusSuccess, res.Status)
	assert.ElementsMatch(t, []string{"backfill.php g1", "backfill.php g2", "backfill.php g3"}, h.runner.commands())
}

func TestDispatch_NonPositiveThreadsKeepsDefault(t *testing.T) {
	for _, v := range []string{"0", "-4", "many"} {
		t.Run(v, func(t *testing.T) {
			h := newHarness(t)
			h.db.AddGroup("g1", false, true)
			h.db.SetSetting("backfillthreads", v)

			res, err := h.dispatcher(nil).Dispatch(context.Background(), model.WorkTypeBackfill, nil)
			require.NoError(t, err)

			engine := h.engines.last()
			require.NotNil(t, engine)
			assert.Empty(t, engine.setCalls)
			assert.Equal(t, 3, res.Concurrency)
		})
	}
}

func TestDispatch_BackfillMaxOption(t *testing.T) {
	h := newHarness(t)
	h.db.AddGroup("g1", false, true)

	_, err := h.dispatcher(nil).Dispatch(context.Background(), model.WorkTypeBackfill, []string{"250"})
	require.NoError(t, err)
	assert.Equal(t, []string{"backfill.php g1 250"}, h.runner.commands())
}

func TestDispatch_ReleasesActiveOrBackfill(t *testing.T) {
	h := newHarness(t)
	h.db.AddGroup("A", true, false)
	h.db.AddGroup("B", false, true)
	h.db.AddGroup("C", false, false)

	res, err := h.dispatcher(nil).Dispatch(context.Background(), model.WorkTypeReleases, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Items)
	assert.ElementsMatch(t, []string{"update_releases.php 1 false A", "update_releases.php 1 false B"}, h.runner.commands())
}

func TestDispatch_GateOffStartsNoPool(t *testing.T) {
	h := newHarness(t)
	gid := h.db.AddGroup("a.b.nfo", true, false)
	h.db.AddRelease(testsupport.Release{GroupID: gid, NZBStatus: NZBAdded, NFOStatus: -1})
	h.db.SetSetting(SettingLookupNfo, "0")

	res, err := h.dispatcher(nil).Dispatch(context.Background(), model.WorkTypePostProcessNfo, nil)
	require.NoError(t, err)
	assert.Empty(t, h.engines.engines)
	assert.Empty(t, h.runner.commands())
	assert.Zero(t, h.opener.last.queries)
	assert.Equal(t, model.RunStatusEmpty, res.Status)
	assert.Equal(t, []string{"gateway-close"}, h.log.list())
}

func TestDispatch_MoviesSubmitsEachGroupOnce(t *testing.T) {
	h := newHarness(t)
	gid := h.db.AddGroup("a.b.movies", true, false)
	h.db.AddRelease(testsupport.Release{GroupID: gid, CategoryID: 2040, NZBStatus: NZBAdded})
	h.db.AddRelease(testsupport.Release{GroupID: gid, CategoryID: 2060, NZBStatus: NZBAdded})
	h.db.SetSetting(SettingLookupIMDB, "1")

	res, err := h.dispatcher(nil).Dispatch(context.Background(), model.WorkTypePostProcessMovies, nil)
	require.NoError(t, err)

	engine := h.engines.last()
	require.NotNil(t, engine)
	require.Len(t, engine.submitted, 1)
	assert.Equal(t, StageFlags{Movies: true}, res.Flags)
	assert.Equal(t, []string{"postprocess.php movies true " + engine.submitted[0].String("id")}, h.runner.commands())
}

func TestDispatch_GatewayClosedBeforePoolRuns(t *testing.T) {
	h := newHarness(t)
	h.db.AddGroup("A", true, false)

	_, err := h.dispatcher(nil).Dispatch(context.Background(), model.WorkTypeBinaries, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"gateway-close", "run"}, h.log.list())
	assert.Equal(t, 1, h.engines.last().runs)
}

func TestDispatch_EmptyQueueIsNoop(t *testing.T) {
	h := newHarness(t)

	res, err := h.dispatcher(nil).Dispatch(context.Background(), model.WorkTypeBinaries, nil)
	require.NoError(t, err)
	assert.Empty(t, h.engines.engines)
	assert.Equal(t, model.RunStatusEmpty, res.Status)
}

func TestDispatch_QueryFailureAborts(t *testing.T) {
	h := newHarness(t)
	h.db.SetSetting(SettingLookupTVRage, "1")
	h.opener.tweak = func(g *countingGateway) { g.failOneRow = true }

	res, err := h.dispatcher(nil).Dispatch(context.Background(), model.WorkTypePostProcessTV, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, model.RunStatusFail, res.Status)
	assert.Empty(t, h.engines.engines)
	assert.Contains(t, h.log.list(), "gateway-close")

	require.Len(t, h.recorder.results, 1)
	assert.Equal(t, model.RunStatusFail, h.recorder.results[0].Status)
	assert.NotEmpty(t, h.recorder.results[0].Error)
}

func TestDispatch_OpenFailure(t *testing.T) {
	h := newHarness(t)
	h.opener.openErr = errBoom

	_, err := h.dispatcher(nil).Dispatch(context.Background(), model.WorkTypeBinaries, nil)
	assert.ErrorIs(t, err, errBoom)
}

func TestDispatch_WorkerFailuresAreCounted(t *testing.T) {
	h := newHarness(t)
	h.db.AddGroup("A", true, false)
	h.db.AddGroup("B", true, false)
	h.runner.fail = map[string]bool{"update_binaries.php A": true}

	res, err := h.dispatcher(nil).Dispatch(context.Background(), model.WorkTypeBinaries, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, model.RunStatusSuccess, res.Status)
	assert.Len(t, h.runner.commands(), 2)
}

func TestDispatch_LockBusySkips(t *testing.T) {
	h := newHarness(t)
	h.db.AddGroup("A", true, false)

	res, err := h.dispatcher(busyLocker{}).Dispatch(context.Background(), model.WorkTypeBinaries, nil)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, model.RunStatusSkipped, res.Status)
	assert.Nil(t, h.opener.last)
	assert.Empty(t, h.engines.engines)
	assert.Empty(t, h.tracker.begun)
}

func TestDispatch_FileLockAllowsSequentialRuns(t *testing.T) {
	h := newHarness(t)
	h.db.AddGroup("A", true, false)
	d := h.dispatcher(lock.NewFileLocker(t.TempDir()))

	for i := 0; i < 2; i++ {
		res, err := d.Dispatch(context.Background(), model.WorkTypeBinaries, nil)
		require.NoError(t, err)
		assert.False(t, res.Skipped)
	}
	assert.Len(t, h.engines.engines, 2)
}

func TestDispatch_SharingRunsDirectly(t *testing.T) {
	h := newHarness(t)
	h.db.SetSharing(true)

	res, err := h.dispatcher(nil).Dispatch(context.Background(), model.WorkTypePostProcessSharing, nil)
	require.NoError(t, err)
	assert.True(t, res.Direct)
	assert.Equal(t, model.RunStatusSuccess, res.Status)
	assert.Empty(t, h.engines.engines)
	assert.Equal(t, []string{"sharing", "nntp-close", "gateway-close"}, h.log.list())
}

func TestDispatch_AmazonSingleSkipsSharing(t *testing.T) {
	h := newHarness(t)
	h.db.SetSharing(true)

	res, err := h.dispatcher(nil).Dispatch(context.Background(), model.WorkTypePostProcessAmazonSingle, nil)
	require.NoError(t, err)
	assert.True(t, res.Direct)
	assert.Empty(t, h.dialer.dials)
	assert.Equal(t, []string{
		"routine:book", "routine:console", "routine:games", "routine:music", "routine:xxx", "gateway-close",
	}, h.log.list())
}

func TestDispatch_RecordsAndTracks(t *testing.T) {
	h := newHarness(t)
	h.db.AddGroup("A", true, false)

	res, err := h.dispatcher(nil).Dispatch(context.Background(), model.WorkTypeBinaries, []string{"x"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, []string{res.RunID}, h.tracker.begun)
	assert.Equal(t, []string{res.RunID}, h.tracker.ended)
	require.Len(t, h.recorder.results, 1)
	assert.Equal(t, res.RunID, h.recorder.results[0].RunID)
	assert.Equal(t, []string{"x"}, h.recorder.results[0].Options)
}

func TestDispatch_UnknownWorkType(t *testing.T) {
	h := newHarness(t)
	_, err := h.dispatcher(nil).Dispatch(context.Background(), model.WorkType("bogus"), nil)
	assert.ErrorIs(t, err, model.ErrUnknownWorkType)
}

func TestDispatcherAmazon(t *testing.T) {
	h := newHarness(t)
	failed, err := h.dispatcher(nil).Amazon(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, failed)
	assert.Equal(t, []string{"routine:book", "routine:music", "routine:games"}, h.log.list())
}
