package markov

import (
	"log/slog"
	"strings"
	"unicode/utf8"
)

// SeedTier records which rule picked the first token of a reply.
type SeedTier int

const (
	// TierEmpty means no seed could be found and the placeholder was returned.
	TierEmpty SeedTier = iota
	// TierStrong means the seed came from the user's input and was long enough.
	TierStrong
	// TierWeak means the seed came from the user's input but was short.
	TierWeak
	// TierStart means the seed is a sentence start from the corpus.
	TierStart
)

func (t SeedTier) String() string {
	switch t {
	case TierStrong:
		return "strong"
	case TierWeak:
		return "weak"
	case TierStart:
		return "start"
	default:
		return "empty"
	}
}

// StopReason records why a walk ended.
type StopReason int

const (
	// StopEmptyModel means no walk happened because there was no seed.
	StopEmptyModel StopReason = iota
	// StopNoContinuation means the last token has no recorded successor.
	StopNoContinuation
	// StopTerminator means a terminator token was appended.
	StopTerminator
	// StopMaxSteps means the step limit was reached.
	StopMaxSteps
)

func (r StopReason) String() string {
	switch r {
	case StopNoContinuation:
		return "no_continuation"
	case StopTerminator:
		return "terminator"
	case StopMaxSteps:
		return "max_steps"
	default:
		return "empty_model"
	}
}

// Reply is the result of a single generation.
type Reply struct {
	Text   string     // The tokens concatenated without separators, or the placeholder.
	Tokens []string   // The seed followed by every walked token. Nil for TierEmpty.
	Seed   string     // The first token. Empty for TierEmpty.
	Tier   SeedTier   // The rule that chose Seed.
	Stop   StopReason // Why the walk ended.
}

// GenerateReply is a convenience wrapper around Generate that returns only the
// reply text.
func (g *ReplyGenerator) GenerateReply(model *Model, input string) string {
	return g.Generate(model, input).Text
}

// Generate picks a seed for input and walks model from it.
//
// The seed is chosen by the first rule that has candidates: tokens of input that
// have successors in the model and are at least the minimum seed length; tokens
// of input that have successors at any length; the model's sentence starts.
// Candidates are picked uniformly, duplicates included. When all three are empty
// the placeholder is returned and no walk is performed.
//
// The walk then appends a uniformly chosen successor of the current token until
// the token has no successor, a terminator is appended, or the step limit is hit.
func (g *ReplyGenerator) Generate(model *Model, input string) Reply {
	seed, tier := g.chooseSeed(model, input)
	if tier == TierEmpty {
		g.logger.Debug("Generation skipped, model has no seed", slog.Int("input_length", len(input)))
		return Reply{Text: g.options.placeholder, Tier: TierEmpty, Stop: StopEmptyModel}
	}

	tokens, stop := g.walk(model, seed)

	g.logger.Debug("Reply generated",
		slog.String("seed", seed),
		slog.String("tier", tier.String()),
		slog.String("stop", stop.String()),
		slog.Int("generated_length", len(tokens)),
	)

	return Reply{
		Text:   strings.Join(tokens, ""),
		Tokens: tokens,
		Seed:   seed,
		Tier:   tier,
		Stop:   stop,
	}
}

// chooseSeed implements the tiered seed selection.
func (g *ReplyGenerator) chooseSeed(model *Model, input string) (string, SeedTier) {
	var strong, weak []string
	for _, token := range g.tokenizer.Tokenize(input) {
		if !model.HasSuccessors(token) {
			continue
		}
		weak = append(weak, token)
		if utf8.RuneCountInString(token) >= g.options.minSeedLength {
			strong = append(strong, token)
		}
	}

	switch {
	case len(strong) > 0:
		return choose(g.options.chooser, strong), TierStrong
	case len(weak) > 0:
		return choose(g.options.chooser, weak), TierWeak
	case len(model.starts) > 0:
		return choose(g.options.chooser, model.starts), TierStart
	default:
		return "", TierEmpty
	}
}

// walk contains the main loop for generating a reply from a seed.
func (g *ReplyGenerator) walk(model *Model, seed string) ([]string, StopReason) {
	result := make([]string, 1, g.options.maxSteps+1)
	result[0] = seed
	current := seed

	for range g.options.maxSteps {
		choices := model.successors(current)
		if len(choices) == 0 { // Dead end in chain
			return result, StopNoContinuation
		}

		current = choose(g.options.chooser, choices)
		result = append(result, current)

		if _, ok := g.options.terminators[current]; ok {
			return result, StopTerminator
		}
	}

	return result, StopMaxSteps
}
