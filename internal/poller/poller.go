package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// FetchFunc loads the full current list from the backend.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// Snapshot is a consistent view of a poller's state.
type Snapshot[T any] struct {
	Items     []T
	Loading   bool      // True until the first result lands and while a poll is in flight
	Err       error     // Error of the latest applied poll, nil on success
	Fallback  bool      // Items come from the fallback, not the backend
	UpdatedAt time.Time // When Items were last replaced by a successful poll
}

// Poller periodically fetches a list and keeps the latest result. Every poll
// takes a generation number at start; a result is applied only if no newer
// poll has already been applied, so slow responses of superseded polls are
// discarded instead of overwriting fresher data.
type Poller[T any] struct {
	name     string
	fetch    FetchFunc[T]
	fallback func() []T
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
	onUpdate func(items []T)

	nextGen atomic.Uint64

	mu         sync.RWMutex
	items      []T
	err        error
	fallbackOn bool
	loaded     bool // A backend result has been applied at least once
	completed  bool // Any result (success or failure) has been applied
	inFlight   int
	appliedGen uint64
	updatedAt  time.Time

	subsMu sync.Mutex
	subs   map[chan struct{}]struct{}
}

// Config holds poller configuration.
type Config[T any] struct {
	Name     string // Metric label and log field, e.g. "tokens"
	Fetch    FetchFunc[T]
	Fallback func() []T // Served after a failure when nothing was ever loaded; optional
	Interval time.Duration
	Logger   *zap.Logger
	OnUpdate func(items []T) // Called after each successfully applied poll; optional
	Now      func() time.Time
}

// New creates a poller. It does not fetch until Run or Refresh is called.
func New[T any](cfg *Config[T]) *Poller[T] {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Poller[T]{
		name:     cfg.Name,
		fetch:    cfg.Fetch,
		fallback: cfg.Fallback,
		interval: cfg.Interval,
		logger:   cfg.Logger,
		now:      now,
		onUpdate: cfg.OnUpdate,
		subs:     make(map[chan struct{}]struct{}),
	}
}

// Run polls once immediately, then on every interval until ctx is done.
func (p *Poller[T]) Run(ctx context.Context) error {
	p.logger.Info("poller-starting",
		zap.String("source", p.name),
		zap.Duration("interval", p.interval))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	err := p.Refresh(ctx)
	if err != nil {
		p.logger.Error("initial-poll-failed", zap.String("source", p.name), zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller-stopping", zap.String("source", p.name))
			return ctx.Err()
		case <-ticker.C:
			err := p.Refresh(ctx)
			if err != nil {
				p.logger.Error("poll-failed", zap.String("source", p.name), zap.Error(err))
			}
		}
	}
}

// Refresh performs one poll now. It is safe to call concurrently with Run
// and with itself; the newest poll to start wins.
func (p *Poller[T]) Refresh(ctx context.Context) error {
	gen := p.nextGen.Add(1)
	start := time.Now()

	p.mu.Lock()
	p.inFlight++
	p.mu.Unlock()
	p.notify()

	items, err := p.fetch(ctx)

	PollDurationSeconds.WithLabelValues(p.name).Observe(time.Since(start).Seconds())

	p.mu.Lock()
	p.inFlight--
	stale := gen <= p.appliedGen
	if !stale {
		p.apply(gen, items, err)
	}
	applied := append([]T(nil), p.items...)
	p.mu.Unlock()

	switch {
	case stale:
		StaleDiscardedTotal.WithLabelValues(p.name).Inc()
		p.logger.Debug("stale-poll-discarded",
			zap.String("source", p.name),
			zap.Uint64("generation", gen))
	case err != nil:
		PollsTotal.WithLabelValues(p.name, "error").Inc()
	default:
		PollsTotal.WithLabelValues(p.name, "ok").Inc()
		ItemsGauge.WithLabelValues(p.name).Set(float64(len(items)))
		if p.onUpdate != nil {
			p.onUpdate(applied)
		}
	}

	p.notify()

	return err
}

// apply records a poll result. Caller holds p.mu.
func (p *Poller[T]) apply(gen uint64, items []T, err error) {
	p.appliedGen = gen
	p.completed = true

	if err == nil {
		p.items = items
		p.err = nil
		p.loaded = true
		p.fallbackOn = false
		p.updatedAt = p.now()
		return
	}

	p.err = err
	if !p.loaded && p.fallback != nil {
		p.items = p.fallback()
		p.fallbackOn = true
		p.logger.Warn("serving-fallback-data",
			zap.String("source", p.name),
			zap.Error(err))
	}
}

// Snapshot returns the current state. Items is a copy.
func (p *Poller[T]) Snapshot() Snapshot[T] {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return Snapshot[T]{
		Items:     append([]T(nil), p.items...),
		Loading:   !p.completed || p.inFlight > 0,
		Err:       p.err,
		Fallback:  p.fallbackOn,
		UpdatedAt: p.updatedAt,
	}
}

// Subscribe returns a channel that receives a signal after every state
// change. Signals coalesce; call Snapshot to read the state. The returned
// function unsubscribes.
func (p *Poller[T]) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	p.subsMu.Lock()
	p.subs[ch] = struct{}{}
	p.subsMu.Unlock()

	return ch, func() {
		p.subsMu.Lock()
		delete(p.subs, ch)
		p.subsMu.Unlock()
	}
}

func (p *Poller[T]) notify() {
	p.subsMu.Lock()
	defer p.subsMu.Unlock()

	for ch := range p.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
