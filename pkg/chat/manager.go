package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/bananadesuyo/iwataGPT/pkg/markov"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrSessionNotFound is returned for unknown session ids.
var ErrSessionNotFound = errors.New("session not found")

// Manager creates and tracks independent sessions that share a tokenizer and a
// generator. All methods are concurrent-safe.
type Manager struct {
	tokenizer markov.Tokenizer
	gen       *markov.ReplyGenerator
	load      LoadFunc
	logger    *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager returns a Manager with no sessions. A nil load defaults to
// corpus.Load.
func NewManager(tokenizer markov.Tokenizer, gen *markov.ReplyGenerator, load LoadFunc) *Manager {
	return &Manager{
		tokenizer: tokenizer,
		gen:       gen,
		load:      load,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		sessions:  make(map[string]*Session),
	}
}

// SetLogger sets the logger for the Manager and every session it creates
// afterwards. By default, all logs are discarded.
func (m *Manager) SetLogger(logger *slog.Logger) {
	if logger != nil {
		m.logger = logger
	}
}

// Create starts a new session and, if source is not empty, loads it. The
// session is registered even when the load fails, in which case it answers with
// the placeholder until a later load succeeds; the returned bool reports the
// outcome of the load.
func (m *Manager) Create(ctx context.Context, source string) (*Session, bool) {
	s := NewSession(uuid.NewString(), m.tokenizer, m.gen, m.load)
	s.SetLogger(m.logger)

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "Session created", slog.String("session_id", s.ID()), slog.String("source", source))

	if source == "" {
		return s, false
	}
	return s, s.LoadAndLearn(ctx, source)
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove forgets a session. Removing an unknown id is not an error.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// List returns a snapshot of every session, ordered by id.
func (m *Manager) List() []Info {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	infos := make([]Info, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, s.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ID < infos[j].ID
	})
	return infos
}

// Reload relearns source in every session currently using it, concurrently.
// Sessions whose reload fails keep their previous model. It returns the number
// of sessions that were reloaded successfully.
func (m *Manager) Reload(ctx context.Context, source string) int {
	m.mu.RLock()
	var targets []*Session
	for _, s := range m.sessions {
		if s.Active() == source {
			targets = append(targets, s)
		}
	}
	m.mu.RUnlock()

	var mu sync.Mutex
	reloaded := 0
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(8)
	for _, s := range targets {
		eg.Go(func() error {
			if s.LoadAndLearn(egCtx, source) {
				mu.Lock()
				reloaded++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = eg.Wait()

	m.logger.InfoContext(ctx, "Sessions reloaded",
		slog.String("source", source),
		slog.Int("sessions", len(targets)),
		slog.Int("reloaded", reloaded),
	)
	return reloaded
}

// Expire removes sessions idle for longer than maxIdle and returns how many
// were removed.
func (m *Manager) Expire(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if s.LastUsed().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("Idle sessions expired", slog.Int("removed", removed), slog.Int("remaining", len(m.sessions)))
	}
	return removed
}
