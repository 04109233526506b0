package services

import (
	"context"
	"sync"
	"time"

	"github.com/radworks/reportassist/internal/infrastructure/observability"
)

// PollState is the lifecycle state of one polling loop
type PollState string

const (
	PollStateIdle     PollState = "idle"
	PollStatePending  PollState = "pending"
	PollStateResolved PollState = "resolved"
	PollStateTimedOut PollState = "timed_out"
)

// PollFunc performs one poll attempt. It returns done=true when the
// underlying operation reached a terminal state and polling should stop.
// A non-nil error stops the loop immediately.
type PollFunc func(ctx context.Context) (done bool, err error)

// Poller repeatedly invokes a PollFunc on a fixed interval until it reports
// done, errors, exceeds its budget, or is stopped. Start is idempotent per
// key: while a loop for a key is pending, further Starts for that key are
// no-ops, so callers may request polling on every interaction without
// stacking tickers.
type Poller struct {
	interval time.Duration
	budget   time.Duration
	kind     string
	metrics  *observability.Metrics

	mu     sync.Mutex
	active map[string]context.CancelFunc
	states map[string]PollState
}

// NewPoller creates a poll controller. kind labels the poll in logs and
// metrics (for example "completeness" or "validation").
func NewPoller(kind string, interval, budget time.Duration, metrics *observability.Metrics) *Poller {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Poller{
		interval: interval,
		budget:   budget,
		kind:     kind,
		metrics:  metrics,
		active:   make(map[string]context.CancelFunc),
		states:   make(map[string]PollState),
	}
}

// State returns the current poll state for a key
func (p *Poller) State(key string) PollState {
	p.mu.Lock()
	defer p.mu.Unlock()
	if state, ok := p.states[key]; ok {
		return state
	}
	return PollStateIdle
}

// Start begins polling for a key. If a loop for the key is already pending
// this is a no-op and returns false.
func (p *Poller) Start(key string, fn PollFunc) bool {
	return p.StartWithTimeout(key, fn, nil)
}

// StartWithTimeout begins polling like Start and additionally invokes
// onTimeout when the budget elapses with the operation still pending, so
// callers can surface the exhaustion instead of waiting forever.
func (p *Poller) StartWithTimeout(key string, fn PollFunc, onTimeout func()) bool {
	p.mu.Lock()
	if _, running := p.active[key]; running {
		p.mu.Unlock()
		return false
	}

	ctx := context.Background()
	var cancel context.CancelFunc
	if p.budget > 0 {
		ctx, cancel = context.WithTimeout(ctx, p.budget)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	p.active[key] = cancel
	p.states[key] = PollStatePending
	p.mu.Unlock()

	go p.run(ctx, key, fn, onTimeout)
	return true
}

// Stop cancels the polling loop for a key, if one is pending
func (p *Poller) Stop(key string) {
	p.mu.Lock()
	cancel, ok := p.active[key]
	p.mu.Unlock()
	if ok {
		cancel()
	}
}

// StopAll cancels every pending loop
func (p *Poller) StopAll() {
	p.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(p.active))
	for _, cancel := range p.active {
		cancels = append(cancels, cancel)
	}
	p.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

func (p *Poller) run(ctx context.Context, key string, fn PollFunc, onTimeout func()) {
	logger := observability.GetLogger()
	defer func() {
		p.mu.Lock()
		if cancel, ok := p.active[key]; ok {
			cancel()
			delete(p.active, key)
		}
		p.mu.Unlock()
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			state := PollStateIdle
			if ctx.Err() == context.DeadlineExceeded {
				state = PollStateTimedOut
				logger.Warn().
					Str("poll", p.kind).
					Str("key", key).
					Dur("budget", p.budget).
					Msg("Poll budget exhausted")
			}
			p.setState(key, state)
			if state == PollStateTimedOut && onTimeout != nil {
				onTimeout()
			}
			return
		case <-ticker.C:
			observability.RecordPoll(ctx, p.metrics, p.kind)

			done, err := fn(ctx)
			if err != nil {
				// A failed attempt ends the loop; the next user
				// interaction restarts it.
				logger.Warn().
					Err(err).
					Str("poll", p.kind).
					Str("key", key).
					Msg("Poll attempt failed, stopping")
				p.setState(key, PollStateIdle)
				return
			}
			if done {
				p.setState(key, PollStateResolved)
				return
			}
		}
	}
}

func (p *Poller) setState(key string, state PollState) {
	p.mu.Lock()
	p.states[key] = state
	p.mu.Unlock()
}
