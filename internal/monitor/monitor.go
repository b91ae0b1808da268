// Package monitor runs the background loop that tracks the live session
// set and relays each session's buffered console output into the log.
package monitor

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/vburojevic/ecw/internal/cdp"
	"github.com/vburojevic/ecw/internal/console"
	"github.com/vburojevic/ecw/internal/filter"
	"github.com/vburojevic/ecw/internal/wait"
)

// Directory takes session snapshots of the debugging endpoint.
type Directory interface {
	List(ctx context.Context) ([]cdp.Session, error)
}

// Collector installs and drains the in-page console buffers.
type Collector interface {
	EnsureInstalled(ctx context.Context, address string) (console.InstallState, error)
	Drain(ctx context.Context, address string, buffer console.Buffer) ([]string, error)
}

// Options configures a Monitor.
type Options struct {
	// Interval paces the polling loop.
	Interval time.Duration
	// Alive reports whether the host process is still running. The loop
	// ends on its own once it turns false.
	Alive func() bool
	// Filter narrows the relayed messages buffer. Errors and warnings are
	// always relayed. Nil relays everything.
	Filter *filter.Lines
	Clock  clock.Clock
	Logger *zap.Logger
}

// Monitor maintains its session map purely by full-snapshot diffing and
// drains every tracked session once per tick. The map is owned by the loop
// goroutine exclusively; no other code reads or writes it.
type Monitor struct {
	directory Directory
	collector Collector
	opts      Options

	active map[string]string // session id → transport address

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New returns a monitor polling directory and draining through collector.
func New(directory Directory, collector Collector, opts Options) *Monitor {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Alive == nil {
		opts.Alive = func() bool { return true }
	}
	return &Monitor{
		directory: directory,
		collector: collector,
		opts:      opts,
		active:    make(map[string]string),
	}
}

// Start launches the polling loop in its own goroutine. Starting a running
// monitor is a no-op.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.run(runCtx)
}

// Stop cancels the loop, including any poll in flight, and blocks until the
// loop goroutine has fully wound down. Safe to call on a monitor that was
// never started or already stopped on its own.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.mu.Unlock()
	if done == nil {
		return
	}
	cancel()
	<-done
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)
	for m.opts.Alive() {
		if ctx.Err() != nil {
			return
		}
		m.tick(ctx)
		if !wait.Sleep(ctx, m.opts.Clock, m.opts.Interval) {
			return
		}
	}
	m.opts.Logger.Info("host process exited, session monitor stopping")
}

func (m *Monitor) tick(ctx context.Context) {
	sessions, err := m.directory.List(ctx)
	if err != nil {
		// A failed snapshot says nothing about the session set, so the
		// tracked set stays as is until the next successful poll.
		m.opts.Logger.Warn("session directory poll failed", zap.Error(err))
		return
	}

	current := make(map[string]string, len(sessions))
	currentIDs := make([]string, 0, len(sessions))
	for _, s := range sessions {
		current[s.ID] = s.Address
		currentIDs = append(currentIDs, s.ID)
	}

	added, removed := lo.Difference(currentIDs, lo.Keys(m.active))
	for _, id := range added {
		m.active[id] = current[id]
		m.opts.Logger.Info("session discovered", zap.String("session", id))
	}
	for _, id := range removed {
		delete(m.active, id)
		m.opts.Logger.Info("session closed", zap.String("session", id))
	}

	ids := lo.Keys(m.active)
	slices.Sort(ids)
	for _, id := range ids {
		m.drainSession(ctx, id, m.active[id])
	}
}

// drainSession relays one session's buffered output. Failures are logged
// and abandon this session for the tick; the other sessions still drain.
func (m *Monitor) drainSession(ctx context.Context, id, address string) {
	if _, err := m.collector.EnsureInstalled(ctx, address); err != nil {
		m.opts.Logger.Error("session poll failed", zap.String("session", id), zap.Error(err))
		return
	}

	drains := []struct {
		buffer console.Buffer
		emit   func(msg string, fields ...zap.Field)
		msg    string
	}{
		{console.Messages, m.opts.Logger.Debug, "session console"},
		{console.Errors, m.opts.Logger.Error, "session error"},
		{console.Warnings, m.opts.Logger.Warn, "session warning"},
	}
	for _, d := range drains {
		entries, err := m.collector.Drain(ctx, address, d.buffer)
		if err != nil {
			m.opts.Logger.Error("session poll failed", zap.String("session", id), zap.Error(err))
			return
		}
		for _, line := range entries {
			if d.buffer == console.Messages && !m.opts.Filter.Allow(line) {
				continue
			}
			d.emit(d.msg, zap.String("session", id), zap.String("line", line))
		}
	}
}
