// Package chat ties corpus loading to reply generation. A Session owns one
// learned model and serializes model switches against replies; a Manager keeps
// many independent sessions.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/bananadesuyo/iwataGPT/pkg/corpus"
	"github.com/bananadesuyo/iwataGPT/pkg/markov"
	"golang.org/x/sync/singleflight"
)

// LoadFunc fetches the corpus identified by source. Failures should wrap
// corpus.ErrUnavailable.
type LoadFunc func(ctx context.Context, source string) ([]string, error)

// Session is one conversation: a model, the generator that answers from it and
// the source the model was learned from. All methods are concurrent-safe.
type Session struct {
	id        string
	tokenizer markov.Tokenizer
	gen       *markov.ReplyGenerator
	load      LoadFunc
	logger    *slog.Logger
	group     singleflight.Group

	mu       sync.RWMutex
	model    *markov.Model
	active   string
	lastUsed time.Time
	issued   uint64 // generation handed to the most recent Load call
	applied  uint64 // generation of the model currently in use
}

// ErrSuperseded is returned by Load when a load started later has already
// replaced the model. The result of the older load is discarded.
var ErrSuperseded = errors.New("superseded by a newer load")

// NewSession creates a session with an empty model. Until a corpus is loaded
// every reply is the generator's placeholder. A nil load defaults to
// corpus.Load.
func NewSession(id string, tokenizer markov.Tokenizer, gen *markov.ReplyGenerator, load LoadFunc) *Session {
	if load == nil {
		load = corpus.Load
	}
	return &Session{
		id:        id,
		tokenizer: tokenizer,
		gen:       gen,
		load:      load,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		model:     markov.NewModel(tokenizer),
		lastUsed:  time.Now(),
	}
}

// SetLogger sets the logger for the Session. By default, all logs are discarded.
func (s *Session) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger.With(slog.String("session_id", s.id))
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// LoadAndLearn fetches the corpus at source and, on success, replaces the
// session's model with one learned from it. On failure the current model is
// left untouched and false is returned.
func (s *Session) LoadAndLearn(ctx context.Context, source string) bool {
	return s.Load(ctx, source) == nil
}

// Load is LoadAndLearn with the failure reason. Concurrent loads of the same
// source share one fetch. Replies keep being served from the previous model
// while the corpus is fetched and learned. When loads overlap, the one started
// last wins: an older load that finishes afterwards returns ErrSuperseded and
// leaves the model alone.
func (s *Session) Load(ctx context.Context, source string) error {
	s.mu.Lock()
	s.issued++
	gen := s.issued
	s.mu.Unlock()

	v, err, shared := s.group.Do(source, func() (any, error) {
		entries, err := s.load(ctx, source)
		if err != nil {
			return nil, err
		}
		model := markov.NewModel(s.tokenizer)
		model.SetLogger(s.logger)
		model.Learn(entries)
		return model, nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load corpus", "source", source, "error", err)
		return fmt.Errorf("load %s: %w", source, err)
	}

	model := v.(*markov.Model)
	s.mu.Lock()
	if gen < s.applied {
		current := s.model
		s.mu.Unlock()
		// A newer caller sharing this fetch already installed the same model.
		if current == model {
			return nil
		}
		s.logger.WarnContext(ctx, "Discarding corpus from an outdated load", "source", source)
		return fmt.Errorf("load %s: %w", source, ErrSuperseded)
	}
	s.applied = gen
	s.model = model
	s.active = source
	s.lastUsed = time.Now()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Corpus loaded",
		slog.String("source", source),
		slog.Bool("shared_fetch", shared),
		slog.Int("starts", model.Stats().Starts),
	)
	return nil
}

// Reply generates an answer to input from the current model.
func (s *Session) Reply(input string) markov.Reply {
	s.mu.Lock()
	s.lastUsed = time.Now()
	model := s.model
	s.mu.Unlock()

	// Models are never mutated after they are swapped in, so generating outside
	// the lock is safe.
	return s.gen.Generate(model, input)
}

// Active returns the source of the current model, or "" if none was loaded.
func (s *Session) Active() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Stats returns statistics for the current model.
func (s *Session) Stats() markov.ModelStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model.Stats()
}

// LastUsed returns the time of the last reply or successful load.
func (s *Session) LastUsed() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUsed
}

// Info is a point-in-time description of a session.
type Info struct {
	ID       string            `json:"id"`
	Source   string            `json:"source"`
	Stats    markov.ModelStats `json:"stats"`
	LastUsed time.Time         `json:"last_used"`
}

// Info returns a snapshot of the session's state.
func (s *Session) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Info{
		ID:       s.id,
		Source:   s.active,
		Stats:    s.model.Stats(),
		LastUsed: s.lastUsed,
	}
}
