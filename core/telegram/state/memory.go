package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/dietbot/core/logger"
	"github.com/m3rciful/dietbot/core/metrics"
)

type session struct {
	state        State
	stateExpires time.Time
	temp         map[string]string
	tempExpires  time.Time
}

func (s *session) live(now time.Time) bool {
	return (s.state != StateIdle && now.Before(s.stateExpires)) ||
		(len(s.temp) > 0 && now.Before(s.tempExpires))
}

// MemoryStore is a Store kept in a mutex-guarded map.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*session
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		sessions: make(map[int64]*session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, userID int64) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count("memory", "get")
	if s, ok := m.sessions[userID]; ok && m.now().Before(s.stateExpires) {
		return s.state, nil
	}
	return StateIdle, nil
}

func (m *MemoryStore) Set(_ context.Context, userID int64, st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	count("memory", "set")
	s := m.session(userID)
	s.state = st
	s.stateExpires = m.now().Add(m.ttl)
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	count("memory", "clear")
	if s, ok := m.sessions[userID]; ok {
		s.state = StateIdle
	}
	return nil
}

func (m *MemoryStore) Take(_ context.Context, userID int64) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count("memory", "take")
	s, ok := m.sessions[userID]
	if !ok {
		return StateIdle, nil
	}
	st := s.state
	s.state = StateIdle
	if !m.now().Before(s.stateExpires) {
		return StateIdle, nil
	}
	return st, nil
}

func (m *MemoryStore) SetIfIdle(_ context.Context, userID int64, st State) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count("memory", "set_if_idle")
	s := m.session(userID)
	now := m.now()
	if s.state != StateIdle && now.Before(s.stateExpires) {
		return false, nil
	}
	s.state = st
	s.stateExpires = now.Add(m.ttl)
	return true, nil
}

func (m *MemoryStore) SetTemp(_ context.Context, userID int64, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	count("memory", "set_temp")
	s := m.session(userID)
	now := m.now()
	if s.temp == nil || !now.Before(s.tempExpires) {
		s.temp = make(map[string]string)
	}
	s.temp[key] = value
	s.tempExpires = now.Add(m.ttl)
	return nil
}

func (m *MemoryStore) GetTemp(_ context.Context, userID int64, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count("memory", "get_temp")
	s, ok := m.sessions[userID]
	if !ok || !m.now().Before(s.tempExpires) {
		return "", false, nil
	}
	v, ok := s.temp[key]
	return v, ok, nil
}

// session returns the entry for userID, creating it. Callers hold mu.
func (m *MemoryStore) session(userID int64) *session {
	s, ok := m.sessions[userID]
	if !ok {
		s = &session{}
		m.sessions[userID] = s
	}
	return s
}

// Sweep drops sessions with nothing live left and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for id, s := range m.sessions {
		if !s.live(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *MemoryStore) RunSweeper(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = m.ttl / 2
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Sweep(); n > 0 && logger.ShouldSampleDebug() {
				logger.Or(logger.Conv).LogAttrs(ctx, slog.LevelDebug, "state.sweep",
					slog.Int("count", n),
				)
			}
		}
	}
}

func count(backend, op string) {
	metrics.StateOps.WithLabelValues(backend, op, "ok").Inc()
}
