package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sandevgo/elvamem/internal/core"
	"github.com/sandevgo/elvamem/pkg/log"
	"github.com/sandevgo/elvamem/pkg/retry"
)

// DialFunc opens a backend connection and returns its probe handle.
type DialFunc func(ctx context.Context) (core.Pinger, error)

type backendEntry struct {
	dial   DialFunc
	pinger core.Pinger

	state    core.ConnectionState
	inflight chan struct{}
}

// Supervisor owns the connection lifecycle for both tiers. Initialization is
// lazy and converges: the first caller dials, concurrent callers wait for
// that result instead of racing duplicate connections. Probe results are
// cached for the staleness window so the hot path rarely pays a round trip.
//
// The supervisor never returns errors. Callers get a ConnectionState and
// branch on it: degraded cache means bypass, degraded durable store means
// the operation fails loudly upstream.
type Supervisor struct {
	mu        sync.Mutex
	backends  map[core.Backend]*backendEntry
	staleness time.Duration
	probeWait time.Duration
	retrier   *retry.Retrier
	now       func() time.Time
}

func NewSupervisor(staleness, probeWait time.Duration) *Supervisor {
	return &Supervisor{
		backends:  make(map[core.Backend]*backendEntry),
		staleness: staleness,
		probeWait: probeWait,
		retrier:   retry.NewRetrier(retry.NewDialConfig()),
		now:       time.Now,
	}
}

// Register makes a backend known without connecting; the dial happens on the
// first EnsureReady.
func (s *Supervisor) Register(backend core.Backend, dial DialFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backends[backend] = &backendEntry{
		dial:  dial,
		state: core.ConnectionState{Status: core.StatusUninitialized},
	}
}

// RegisterConnected wires an already-open handle, skipping the lazy dial.
func (s *Supervisor) RegisterConnected(backend core.Backend, pinger core.Pinger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backends[backend] = &backendEntry{
		pinger: pinger,
		state:  core.ConnectionState{Status: core.StatusUninitialized},
	}
}

// EnsureReady initializes the backend if needed and returns its state,
// re-probing when the cached result has gone stale.
func (s *Supervisor) EnsureReady(ctx context.Context, backend core.Backend) core.ConnectionState {
	s.mu.Lock()
	entry, ok := s.backends[backend]
	if !ok {
		s.mu.Unlock()
		return core.ConnectionState{Status: core.StatusUninitialized}
	}

	// Fresh enough, answer from cache
	if entry.state.Status != core.StatusUninitialized &&
		s.now().Sub(entry.state.CheckedAt) < s.staleness {
		state := entry.state
		s.mu.Unlock()
		return state
	}

	// Someone else is already dialing or probing; wait for their result
	if entry.inflight != nil {
		wait := entry.inflight
		s.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return core.ConnectionState{Status: core.StatusDegraded, CheckedAt: s.now(), LastErr: ctx.Err()}
		}
		s.mu.Lock()
		state := entry.state
		s.mu.Unlock()
		return state
	}

	entry.inflight = make(chan struct{})
	s.mu.Unlock()

	state := s.establish(ctx, backend, entry)

	s.mu.Lock()
	entry.state = state
	close(entry.inflight)
	entry.inflight = nil
	s.mu.Unlock()

	return state
}

// establish dials if no handle exists yet, then probes. Runs outside the
// supervisor lock; exclusivity comes from the inflight marker.
func (s *Supervisor) establish(ctx context.Context, backend core.Backend, entry *backendEntry) core.ConnectionState {
	logger := log.FromCtx(ctx)

	s.mu.Lock()
	pinger := entry.pinger
	dial := entry.dial
	s.mu.Unlock()

	if pinger == nil {
		if dial == nil {
			return core.ConnectionState{Status: core.StatusUninitialized, CheckedAt: s.now()}
		}
		err := s.retrier.Do(ctx, func(c context.Context) error {
			p, dialErr := dial(c)
			if dialErr != nil {
				return dialErr
			}
			pinger = p
			return nil
		})
		if err != nil {
			logger.Warn().Err(err).Str("backend", string(backend)).Msg("backend dial failed")
			return core.ConnectionState{Status: core.StatusDegraded, CheckedAt: s.now(), LastErr: err}
		}
		s.mu.Lock()
		entry.pinger = pinger
		s.mu.Unlock()
		logger.Info().Str("backend", string(backend)).Msg("backend connection established")
	}

	return s.probePinger(ctx, backend, pinger, s.probeWait)
}

func (s *Supervisor) probePinger(ctx context.Context, backend core.Backend, pinger core.Pinger, timeout time.Duration) core.ConnectionState {
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- pinger.Ping(probeCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			log.FromCtx(ctx).Warn().Err(err).Str("backend", string(backend)).Msg("backend probe failed")
			return core.ConnectionState{Status: core.StatusDegraded, CheckedAt: s.now(), LastErr: err}
		}
		return core.ConnectionState{Status: core.StatusHealthy, CheckedAt: s.now()}
	case <-probeCtx.Done():
		log.FromCtx(ctx).Warn().Str("backend", string(backend)).Msg("backend probe timed out")
		return core.ConnectionState{Status: core.StatusDegraded, CheckedAt: s.now(), LastErr: core.ErrTimeout}
	}
}

// Probe forces a health check with the given bound, bypassing the staleness
// cache. The result is recorded.
func (s *Supervisor) Probe(ctx context.Context, backend core.Backend, timeout time.Duration) core.Status {
	s.mu.Lock()
	entry, ok := s.backends[backend]
	if !ok || entry.pinger == nil {
		s.mu.Unlock()
		return core.StatusUninitialized
	}
	pinger := entry.pinger
	s.mu.Unlock()

	state := s.probePinger(ctx, backend, pinger, timeout)

	s.mu.Lock()
	entry.state = state
	s.mu.Unlock()
	return state.Status
}

// Snapshot reports the recorded state of every backend without probing.
func (s *Supervisor) Snapshot() map[core.Backend]core.ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[core.Backend]core.ConnectionState, len(s.backends))
	for b, entry := range s.backends {
		out[b] = entry.state
	}
	return out
}
