package dispatch

import (
	"context"
	"errors"
	"sync"

	"github.com/azhengyongqin/forkhub/internal/gateway"
	"github.com/azhengyongqin/forkhub/internal/lock"
	"github.com/azhengyongqin/forkhub/internal/model"
	"github.com/azhengyongqin/forkhub/internal/nntp"
	"github.com/azhengyongqin/forkhub/internal/pool"
	"github.com/azhengyongqin/forkhub/internal/runner"
)

var errBoom = errors.New("boom")

// eventLog 记录跨组件的调用顺序
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

// recordingEngine 顺序执行 worker 并记录所有调用
type recordingEngine struct {
	log *eventLog

	max       int
	setCalls  []int
	label     string
	fn        pool.WorkerFunc[gateway.Row]
	onExit    pool.ExitFunc
	submitted []gateway.Row
	runs      int
	stats     pool.Stats
}

func newRecordingEngine(log *eventLog) *recordingEngine {
	return &recordingEngine{log: log, max: 3}
}

func (e *recordingEngine) SetMaxConcurrency(n int) {
	e.setCalls = append(e.setCalls, n)
	if n > 0 {
		e.max = n
	}
}

func (e *recordingEngine) MaxConcurrency() int { return e.max }

func (e *recordingEngine) Register(label string, fn pool.WorkerFunc[gateway.Row]) {
	e.label = label
	e.fn = fn
}

func (e *recordingEngine) OnWorkerExit(fn pool.ExitFunc) { e.onExit = fn }

func (e *recordingEngine) Submit(items ...gateway.Row) {
	e.submitted = append(e.submitted, items...)
}

func (e *recordingEngine) Run(ctx context.Context, blocking bool) error {
	e.runs++
	if e.log != nil {
		e.log.add("run")
	}
	if e.fn == nil {
		return pool.ErrNoWorker
	}
	for i, item := range e.submitted {
		e.stats.Workers++
		err := e.fn(ctx, []gateway.Row{item}, e.label)
		if err != nil {
			e.stats.Failed++
		}
		if e.onExit != nil {
			e.onExit(i+1, e.label, err)
		}
	}
	return nil
}

func (e *recordingEngine) Wait() pool.Stats { return e.stats }

// engineFactory 记录创建的引擎
type engineFactory struct {
	log     *eventLog
	engines []*recordingEngine
}

func (f *engineFactory) New() pool.Engine[gateway.Row] {
	e := newRecordingEngine(f.log)
	f.engines = append(f.engines, e)
	return e
}

func (f *engineFactory) last() *recordingEngine {
	if len(f.engines) == 0 {
		return nil
	}
	return f.engines[len(f.engines)-1]
}

// fakeRunner 记录执行的命令
type fakeRunner struct {
	mu   sync.Mutex
	cmds []runner.Command
	fail map[string]bool
}

func (r *fakeRunner) Run(_ context.Context, cmd runner.Command) (*runner.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds = append(r.cmds, cmd)
	if r.fail[cmd.String()] {
		return &runner.Result{Command: cmd, ExitCode: 1}, &runner.ExitError{Command: cmd, Code: 1}
	}
	return &runner.Result{Command: cmd}, nil
}

func (r *fakeRunner) commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.cmds))
	for _, c := range r.cmds {
		out = append(out, c.String())
	}
	return out
}

// fakePost 记录后处理例程
type fakePost struct {
	log      *eventLog
	fail     map[Routine]bool
	sharedOn []string
}

func (p *fakePost) Process(_ context.Context, r Routine) error {
	p.log.add("routine:" + string(r))
	if p.fail[r] {
		return errBoom
	}
	return nil
}

func (p *fakePost) ProcessSharing(_ context.Context, conn nntp.Conn) error {
	p.log.add("sharing")
	p.sharedOn = append(p.sharedOn, conn.Addr())
	if p.fail[RoutineSharing] {
		return errBoom
	}
	return nil
}

// fakeDialer 记录拨号
type fakeDialer struct {
	log   *eventLog
	err   error
	dials []bool
}

func (d *fakeDialer) Dial(_ context.Context, alternate bool) (nntp.Conn, error) {
	d.dials = append(d.dials, alternate)
	if d.err != nil {
		return nil, d.err
	}
	addr := "primary:119"
	if alternate {
		addr = "alternate:119"
	}
	return &fakeConn{log: d.log, addr: addr}, nil
}

type fakeConn struct {
	log  *eventLog
	addr string
}

func (c *fakeConn) Addr() string { return c.addr }

func (c *fakeConn) Close() error {
	c.log.add("nntp-close")
	return nil
}

// countingGateway 统计查询次数，可按需注入失败
type countingGateway struct {
	gateway.Handle
	log         *eventLog
	queries     int
	failQuery   bool
	failOneRow  bool
	failSetting bool
}

func (g *countingGateway) Query(ctx context.Context, q string) ([]gateway.Row, error) {
	g.queries++
	if g.failQuery {
		return nil, errBoom
	}
	return g.Handle.Query(ctx, q)
}

func (g *countingGateway) QueryOneRow(ctx context.Context, q string) (gateway.Row, bool, error) {
	g.queries++
	if g.failOneRow {
		return nil, false, errBoom
	}
	return g.Handle.QueryOneRow(ctx, q)
}

func (g *countingGateway) GetSetting(ctx context.Context, name string) (string, error) {
	if g.failSetting {
		return "", errBoom
	}
	return g.Handle.GetSetting(ctx, name)
}

func (g *countingGateway) Close() error {
	if g.log != nil {
		g.log.add("gateway-close")
	}
	return g.Handle.Close()
}

// wrappingOpener 用 countingGateway 包装真实句柄
type wrappingOpener struct {
	inner   gateway.Opener
	log     *eventLog
	openErr error
	tweak   func(*countingGateway)
	last    *countingGateway
}

func (o *wrappingOpener) Open(ctx context.Context) (gateway.Handle, error) {
	if o.openErr != nil {
		return nil, o.openErr
	}
	h, err := o.inner.Open(ctx)
	if err != nil {
		return nil, err
	}
	g := &countingGateway{Handle: h, log: o.log}
	if o.tweak != nil {
		o.tweak(g)
	}
	o.last = g
	return g, nil
}

// busyLocker 总是返回锁被占用
type busyLocker struct{}

func (busyLocker) Acquire(context.Context, string) (lock.Lease, error) { return nil, lock.ErrLocked }

func (busyLocker) Close() error { return nil }

// recorder 记录调度结果
type recorder struct {
	results []*Result
}

func (r *recorder) RecordRun(_ context.Context, res *Result) error {
	cp := *res
	r.results = append(r.results, &cp)
	return nil
}

// tracker 记录活动调度
type tracker struct {
	begun []string
	ended []string
	types []model.WorkType
}

func (t *tracker) Begin(runID string, wt model.WorkType, _ []string) {
	t.begun = append(t.begun, runID)
	t.types = append(t.types, wt)
}

func (t *tracker) End(runID string) { t.ended = append(t.ended, runID) }
