package markov

import (
	"io"
	"log/slog"
	"slices"
)

// Model is a first-order transition table learned from a corpus. It maps each
// token to the tokens observed immediately after it, keeping duplicates so that
// repetition encodes frequency, and it records the first token of every learned
// utterance.
//
// A Model is either empty (new or reset) or complete (derived from exactly one
// corpus). It is not safe for concurrent use: callers must serialize Learn
// against reads and generation.
type Model struct {
	tokenizer   Tokenizer
	transitions map[string][]string
	starts      []string
	learned     int
	skipped     int
	logger      *slog.Logger
}

// NewModel creates an empty Model that tokenizes corpus entries with tokenizer.
func NewModel(tokenizer Tokenizer) *Model {
	return &Model{
		tokenizer:   tokenizer,
		transitions: make(map[string][]string),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetLogger sets the logger for the Model. By default, all logs are discarded.
func (m *Model) SetLogger(logger *slog.Logger) {
	if logger != nil {
		m.logger = logger
	}
}

// Tokenizer returns the tokenizer the model learns with.
func (m *Model) Tokenizer() Tokenizer {
	return m.tokenizer
}

// Reset discards all learned state, leaving the model empty.
func (m *Model) Reset() {
	m.transitions = make(map[string][]string)
	m.starts = nil
	m.learned = 0
	m.skipped = 0
}

// IsEmpty reports whether the model has no sentence starts. A model with no
// starts has never learned a non-empty entry, so it has no transitions either.
func (m *Model) IsEmpty() bool {
	return len(m.starts) == 0
}

// Successors returns a copy of the successor list for token, duplicates
// included. It returns nil when token has never been seen before another token.
func (m *Model) Successors(token string) []string {
	return slices.Clone(m.transitions[token])
}

// HasSuccessors reports whether token is a key of the transition table.
func (m *Model) HasSuccessors(token string) bool {
	return len(m.transitions[token]) > 0
}

// Starts returns a copy of the sentence-start tokens in corpus order.
func (m *Model) Starts() []string {
	return slices.Clone(m.starts)
}

// Transitions returns a deep copy of the transition table.
func (m *Model) Transitions() map[string][]string {
	out := make(map[string][]string, len(m.transitions))
	for token, next := range m.transitions {
		out[token] = slices.Clone(next)
	}
	return out
}

// successors returns the live successor list without copying. Used by the
// generator on its hot path.
func (m *Model) successors(token string) []string {
	return m.transitions[token]
}
