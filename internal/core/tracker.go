package core

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Jrdheeraj/tirupati-geoai/internal/domain/model"
)

// Token identifies one fetch-and-compute cycle.
type Token struct {
	Period     model.Period
	Generation uint64
}

// Tracker keeps the result of the most recently requested period only.
// Beginning a request supersedes every older one; their results are dropped at commit time.
type Tracker struct {
	mu     sync.Mutex
	gen    uint64
	active Token
	cancel context.CancelFunc
	latest *model.InsightRun
	closed bool
	logger *zap.Logger
}

func NewTracker(logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{logger: logger}
}

// Begin starts a new request for period and invalidates the previous one.
func (t *Tracker) Begin(period model.Period) Token {
	tok, _, _ := t.begin(context.Background(), period)
	return tok
}

func (t *Tracker) begin(parent context.Context, period model.Period) (Token, context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}
	t.gen++
	t.active = Token{Period: period, Generation: t.gen}
	t.cancel = cancel
	// The previous period's numbers must not outlive the request that replaced them.
	t.latest = nil
	if t.closed {
		cancel()
	}
	return t.active, ctx, cancel
}

// IsCurrent reports whether tok is the latest request and the tracker is still open.
func (t *Tracker) IsCurrent(tok Token) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.closed && tok == t.active
}

// Commit stores run if tok is still current, otherwise it returns model.ErrStaleResult.
func (t *Tracker) Commit(tok Token, run *model.InsightRun) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || tok != t.active {
		t.logger.Debug("discarding stale insight result",
			zap.Stringer("period", tok.Period),
			zap.Uint64("generation", tok.Generation),
			zap.Uint64("active_generation", t.active.Generation),
			zap.Bool("closed", t.closed))
		return model.ErrStaleResult
	}
	t.latest = run
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	return nil
}

// Latest returns the run of the active request once it has committed.
// It reports false while that request is in flight or after it failed.
func (t *Tracker) Latest() (*model.InsightRun, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || t.latest == nil {
		return nil, false
	}
	return t.latest, true
}

// Close tears the tracker down. Pending and future results are dropped silently.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.closed = true
	t.latest = nil
}

// Run begins a request for period, runs fn and commits its result.
// The context passed to fn is cancelled as soon as a newer request begins.
func (t *Tracker) Run(ctx context.Context, period model.Period, fn func(ctx context.Context) (*model.InsightRun, error)) (*model.InsightRun, error) {
	tok, runCtx, cancel := t.begin(ctx, period)
	defer cancel()

	run, err := fn(runCtx)
	if err != nil {
		// A superseded run's failure is as stale as its result.
		if !t.IsCurrent(tok) {
			return nil, model.ErrStaleResult
		}
		return nil, err
	}
	if err := t.Commit(tok, run); err != nil {
		return nil, err
	}
	return run, nil
}
