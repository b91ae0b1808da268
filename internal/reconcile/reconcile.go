// Package reconcile drives injection: a polling loop that snapshots the
// session directory, diffs against the ids it has already seen, and hands
// each new responsive session to the injection orchestrator exactly once.
package reconcile

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/vburojevic/ecw/internal/cdp"
	"github.com/vburojevic/ecw/internal/inject"
	"github.com/vburojevic/ecw/internal/wait"
)

// Directory takes session snapshots of the debugging endpoint.
type Directory interface {
	List(ctx context.Context) ([]cdp.Session, error)
}

// Evaluator runs expressions against a session for the liveness probe and
// frame pacing.
type Evaluator interface {
	Evaluate(ctx context.Context, address, expression string) cdp.Result
}

// Injector attempts payload injection into one session.
type Injector interface {
	Inject(ctx context.Context, address string) inject.Outcome
}

// probe is the cheapest possible evaluation; a session that cannot answer
// it is not worth injecting into yet.
const probe = `1`

// Options configures a Reconciler.
type Options struct {
	// Interval paces the polling loop.
	Interval time.Duration
	// Alive reports whether the host process is still running. The loop
	// ends on its own once it turns false.
	Alive  func() bool
	Clock  clock.Clock
	Logger *zap.Logger
}

// Reconciler owns the known-id set exclusively; it shares no mutable state
// with the session monitor even though both poll the same directory.
type Reconciler struct {
	directory Directory
	evaluator Evaluator
	injector  Injector
	opts      Options

	known map[string]struct{}
}

// New returns a reconciler dispatching new sessions from directory to
// injector, probing through evaluator first.
func New(directory Directory, evaluator Evaluator, injector Injector, opts Options) *Reconciler {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Alive == nil {
		opts.Alive = func() bool { return true }
	}
	return &Reconciler{
		directory: directory,
		evaluator: evaluator,
		injector:  injector,
		opts:      opts,
		known:     make(map[string]struct{}),
	}
}

// Run polls until the host process exits, returning nil, or ctx is
// cancelled, returning the context's error. Injection is attempted at most
// once per session id for the lifetime of the loop.
func (r *Reconciler) Run(ctx context.Context) error {
	for r.opts.Alive() {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.tick(ctx)
		if !wait.Sleep(ctx, r.opts.Clock, r.opts.Interval) {
			return ctx.Err()
		}
	}
	r.opts.Logger.Info("host process exited, reconciler stopping")
	return nil
}

func (r *Reconciler) tick(ctx context.Context) {
	sessions, err := r.directory.List(ctx)
	if err != nil {
		// A failed snapshot leaves the known set alone: dropping ids here
		// would re-dispatch every live session as new once the directory
		// recovers.
		r.opts.Logger.Debug("session directory poll failed", zap.Error(err))
		return
	}

	for _, s := range sessions {
		if _, seen := r.known[s.ID]; seen {
			continue
		}
		r.dispatch(ctx, s)
	}

	// The snapshot's ids become the known set whether or not every new
	// session answered its probe. An unresponsive session is retried only
	// after a later snapshot stops listing it.
	r.known = make(map[string]struct{}, len(sessions))
	for _, s := range sessions {
		r.known[s.ID] = struct{}{}
	}
}

func (r *Reconciler) dispatch(ctx context.Context, s cdp.Session) {
	if !r.evaluator.Evaluate(ctx, s.Address, probe).OK() {
		r.opts.Logger.Warn("session not responding", zap.String("session", s.ID), zap.String("url", s.URL))
		return
	}
	// Let the fresh page render one frame before the orchestrator starts
	// checking it. The script resolves undefined, so the result carries no
	// information.
	r.evaluator.Evaluate(ctx, s.Address, inject.AwaitFrame)

	switch r.injector.Inject(ctx, s.Address) {
	case inject.Injected:
		r.opts.Logger.Info("injected", zap.String("session", s.ID), zap.String("url", s.URL))
	default:
		r.opts.Logger.Debug("not a viewer or injection failed", zap.String("session", s.ID))
	}
}
