package markov

import (
	"regexp"
)

// defaultPattern matches runs of a single script (kanji, hiragana, katakana,
// ASCII words, full-width digits) or any other single non-space character.
const defaultPattern = `\p{Han}+|\p{Hiragana}+|[\p{Katakana}ー]+|[\w']+|[０-９]+|\S`

// DefaultTokenizer is a regular-expression implementation of the Tokenizer
// interface. It has no dictionary, so it cuts text at script boundaries rather
// than at morpheme boundaries: "私は元気です" becomes [私 は 元気 です], but a
// run of hiragana such as "ありがとう" stays a single token.
// Its behavior can be customized with functional options.
type DefaultTokenizer struct {
	splitRegex *regexp.Regexp
}

// Option Is a function that configures a DefaultTokenizer.
type Option func(*DefaultTokenizer)

// WithPattern sets the regex used to find tokens in input text. Every
// non-overlapping match becomes one token.
// Default: `\p{Han}+|\p{Hiragana}+|[\p{Katakana}ー]+|[\w']+|[０-９]+|\S`
func WithPattern(pattern string) Option {
	return func(t *DefaultTokenizer) {
		t.splitRegex = regexp.MustCompile(pattern)
	}
}

// NewDefaultTokenizer creates a new tokenizer with default settings, which can be
// overridden by providing one or more Option functions.
func NewDefaultTokenizer(opts ...Option) *DefaultTokenizer {
	t := &DefaultTokenizer{
		splitRegex: regexp.MustCompile(defaultPattern),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Tokenize returns every match of the configured pattern, in order.
func (t *DefaultTokenizer) Tokenize(text string) []string {
	return t.splitRegex.FindAllString(text, -1)
}
