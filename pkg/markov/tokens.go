package markov

import (
	"math/rand/v2"
	"sync"
)

// Tokenizer splits text into an ordered sequence of surface tokens. It must be
// deterministic: the same text yields the same tokens for the lifetime of the
// process.
type Tokenizer interface {
	Tokenize(text string) []string
}

// TokenizerFunc adapts an ordinary function to the Tokenizer interface.
type TokenizerFunc func(text string) []string

// Tokenize calls f(text).
func (f TokenizerFunc) Tokenize(text string) []string {
	return f(text)
}

// Chooser is the source of randomness used when picking seeds and successors.
// IntN returns a uniformly distributed integer in [0, n). A *rand.Rand from
// math/rand/v2 satisfies it, but is not safe for concurrent use; wrap it with
// NewLockedChooser when one generator serves several goroutines.
type Chooser interface {
	IntN(n int) int
}

// globalChooser draws from the math/rand/v2 top-level source, which is safe for
// concurrent use.
type globalChooser struct{}

func (globalChooser) IntN(n int) int {
	return rand.IntN(n)
}

// choose picks one element of a non-empty slice uniformly at random.
func choose[T any](c Chooser, items []T) T {
	return items[c.IntN(len(items))]
}

// lockedChooser serializes access to a Chooser.
type lockedChooser struct {
	mu sync.Mutex
	c  Chooser
}

// NewLockedChooser returns a Chooser that is safe for concurrent use and draws
// from c.
func NewLockedChooser(c Chooser) Chooser {
	return &lockedChooser{c: c}
}

func (l *lockedChooser) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.c.IntN(n)
}
