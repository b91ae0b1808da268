// Package inject performs the one-time, readiness-gated payload injection
// into viewer sessions.
package inject

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/vburojevic/ecw/internal/cdp"
	"github.com/vburojevic/ecw/internal/wait"
)

// Evaluator runs an expression in the session behind address.
type Evaluator interface {
	Evaluate(ctx context.Context, address, expression string) cdp.Result
}

// Outcome is the result of one injection attempt.
type Outcome int

const (
	// Injected means both payloads were delivered and the main payload
	// reported success.
	Injected Outcome = iota
	// NotApplicable means the session is not a viewer page. Not an error.
	NotApplicable
	// Failed means the session looked injectable but the attempt did not
	// complete (readiness timeout, missing payload, payload rejected).
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Injected:
		return "injected"
	case NotApplicable:
		return "not applicable"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// AwaitFrame resolves after the page renders one animation frame. Callers
// evaluate it to let the page settle before poking at it.
const AwaitFrame = `(async()=>{await new Promise(requestAnimationFrame);})();`

// iframeCheck is the readiness gate: the viewer builds its content inside
// an iframe, so injection before it exists corrupts the page's DOM
// assumptions.
const iframeCheck = `!!document.querySelector('iframe');`

func viewerCheck(suffix string) string {
	return fmt.Sprintf("location.href.endsWith(%q);", suffix)
}

func awaitFrames(n int) string {
	return fmt.Sprintf(`(async()=>{for(let i=0;i<%d;i++)await new Promise(requestAnimationFrame);})();`, n)
}

// Options configures an Orchestrator.
type Options struct {
	// PageSuffix marks viewer pages by location.href suffix.
	PageSuffix string
	// Frames is the number of animation frames the page must render before
	// payloads are evaluated. The count is a timing contract with the page.
	Frames int
	// Attempts and Interval bound the iframe readiness wait.
	Attempts int
	Interval time.Duration
	Clock    clock.Clock
	Logger   *zap.Logger
}

// Orchestrator injects the payload pair into viewer sessions. Tracking
// which sessions were already injected is the caller's job; the
// orchestrator itself is stateless.
type Orchestrator struct {
	client   Evaluator
	payloads Source
	opts     Options
}

// NewOrchestrator returns an orchestrator evaluating through client and
// loading payloads from source.
func NewOrchestrator(client Evaluator, payloads Source, opts Options) *Orchestrator {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Orchestrator{client: client, payloads: payloads, opts: opts}
}

// Inject runs the injection sequence against one session: viewer check,
// iframe readiness gate, frame pacing, then library and main payloads in
// that order. A session that is not a viewer page is NotApplicable; every
// other shortfall is Failed. Nothing is retried here.
func (o *Orchestrator) Inject(ctx context.Context, address string) Outcome {
	// Sessions whose URL lacks the viewer suffix are left alone. A failed
	// check counts as not-a-viewer rather than an error: the page may have
	// navigated away between discovery and now.
	if !o.client.Evaluate(ctx, address, viewerCheck(o.opts.PageSuffix)).Truthy() {
		return NotApplicable
	}

	ready := wait.Until(ctx, o.opts.Clock, o.opts.Attempts, o.opts.Interval, func(ctx context.Context) (bool, error) {
		return o.client.Evaluate(ctx, address, iframeCheck).Truthy(), nil
	})
	if !ready {
		o.opts.Logger.Warn("timeout waiting for iframe", zap.String("address", address))
		return Failed
	}

	// Pace injection behind rendered frames. The script resolves to
	// undefined, so its result carries no information and is ignored.
	o.client.Evaluate(ctx, address, awaitFrames(o.opts.Frames))

	// Load both payloads before evaluating either, so a missing main
	// payload cannot leave the page with only the library applied.
	library, err := o.payloads.Library()
	if err != nil {
		o.opts.Logger.Error("library payload unavailable", zap.Error(err))
		return Failed
	}
	main, err := o.payloads.Main()
	if err != nil {
		o.opts.Logger.Error("main payload unavailable", zap.Error(err))
		return Failed
	}

	o.client.Evaluate(ctx, address, library)
	if o.client.Evaluate(ctx, address, main).Truthy() {
		return Injected
	}
	return Failed
}
