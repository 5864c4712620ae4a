package markov

import (
	"io"
	"log/slog"
)

const (
	// DefaultMaxSteps is the number of walk steps taken after the seed at most.
	DefaultMaxSteps = 15
	// DefaultMinSeedLength is the rune length a token needs to be a strong seed.
	DefaultMinSeedLength = 2
	// DefaultPlaceholder is returned when the model has nothing to say.
	DefaultPlaceholder = "..."
)

// DefaultTerminators returns the tokens that end a walk by default: the
// full-width question mark, exclamation mark and period, and the laughter
// particle "ｗ".
func DefaultTerminators() []string {
	return []string{"？", "！", "。", "ｗ"}
}

// generateOptions Is used by the generate functions to configure default options.
type generateOptions struct {
	maxSteps      int
	minSeedLength int
	terminators   map[string]struct{}
	placeholder   string
	chooser       Chooser
}

// GenerateOption is a function that configures generation parameters. It's used
// as a variadic argument to NewReplyGenerator.
type GenerateOption func(*generateOptions)

// WithMaxSteps sets the maximum number of tokens appended after the seed. A
// reply therefore holds at most n+1 tokens. Negative values are treated as 0.
func WithMaxSteps(n int) GenerateOption {
	return func(o *generateOptions) { o.maxSteps = max(n, 0) }
}

// WithMinSeedLength sets the rune length a token found in the user's input must
// reach to be considered a strong seed. Shorter tokens that exist in the model
// are still used when no strong seed exists.
func WithMinSeedLength(n int) GenerateOption {
	return func(o *generateOptions) { o.minSeedLength = n }
}

// WithTerminators replaces the set of tokens that stop the walk once appended.
func WithTerminators(tokens ...string) GenerateOption {
	return func(o *generateOptions) {
		o.terminators = make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			o.terminators[t] = struct{}{}
		}
	}
}

// WithPlaceholder sets the reply returned when no seed can be found.
func WithPlaceholder(s string) GenerateOption {
	return func(o *generateOptions) { o.placeholder = s }
}

// WithChooser sets the source of randomness. Pass a seeded *rand.Rand for
// reproducible replies. A nil chooser is ignored.
func WithChooser(c Chooser) GenerateOption {
	return func(o *generateOptions) {
		if c != nil {
			o.chooser = c
		}
	}
}

// ReplyGenerator produces replies from a Model. It holds no learned state of its
// own, so one generator can serve any number of models.
type ReplyGenerator struct {
	tokenizer Tokenizer
	options   generateOptions
	logger    *slog.Logger
}

// NewReplyGenerator creates a ReplyGenerator that tokenizes user input with
// tokenizer. Generation can be customized with GenerateOption functions.
func NewReplyGenerator(tokenizer Tokenizer, opts ...GenerateOption) *ReplyGenerator {
	options := generateOptions{
		maxSteps:      DefaultMaxSteps,
		minSeedLength: DefaultMinSeedLength,
		placeholder:   DefaultPlaceholder,
		chooser:       globalChooser{},
	}
	WithTerminators(DefaultTerminators()...)(&options)
	for _, opt := range opts {
		opt(&options)
	}

	return &ReplyGenerator{
		tokenizer: tokenizer,
		options:   options,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetLogger sets the logger for the ReplyGenerator. By default, all logs are
// discarded.
func (g *ReplyGenerator) SetLogger(logger *slog.Logger) {
	if logger != nil {
		g.logger = logger
	}
}

// Placeholder returns the reply used when the model cannot produce one.
func (g *ReplyGenerator) Placeholder() string {
	return g.options.placeholder
}
