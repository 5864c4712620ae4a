// Package jatokenizer segments Japanese text into morphemes with the kagome
// morphological analyzer, for use as a markov.Tokenizer.
package jatokenizer

import (
	"fmt"
	"strings"

	"github.com/ikawaha/kagome-dict/dict"
	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome-dict/uni"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Dictionary names accepted by WithDictionary.
const (
	DictIPA = "ipa"
	DictUni = "uni"
)

// Tokenizer returns the surface forms of the morphemes kagome finds in a text.
// It is safe for concurrent use.
type Tokenizer struct {
	t         *tokenizer.Tokenizer
	mode      tokenizer.TokenizeMode
	skipSpace bool
}

type config struct {
	dictionary string
	mode       tokenizer.TokenizeMode
	skipSpace  bool
}

// Option configures a Tokenizer.
type Option func(*config)

// WithDictionary selects the system dictionary: "ipa" (IPADIC, the default) or
// "uni" (UniDic).
func WithDictionary(name string) Option {
	return func(c *config) { c.dictionary = name }
}

// WithSearchMode enables kagome's search mode, which splits long compound nouns
// into their parts.
func WithSearchMode() Option {
	return func(c *config) { c.mode = tokenizer.Search }
}

// WithSkipSpace drops tokens consisting only of whitespace.
func WithSkipSpace() Option {
	return func(c *config) { c.skipSpace = true }
}

// New loads the selected dictionary and returns a Tokenizer. Loading a
// dictionary is expensive, so callers should share one Tokenizer.
func New(opts ...Option) (*Tokenizer, error) {
	c := config{dictionary: DictIPA, mode: tokenizer.Normal}
	for _, opt := range opts {
		opt(&c)
	}

	var d *dict.Dict
	switch c.dictionary {
	case DictIPA:
		d = ipa.Dict()
	case DictUni:
		d = uni.Dict()
	default:
		return nil, fmt.Errorf("unknown dictionary %q", c.dictionary)
	}

	t, err := tokenizer.New(d, tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("failed to create kagome tokenizer: %w", err)
	}
	return &Tokenizer{t: t, mode: c.mode, skipSpace: c.skipSpace}, nil
}

// Tokenize returns the surface form of every morpheme in text, in order.
func (t *Tokenizer) Tokenize(text string) []string {
	tokens := t.t.Analyze(text, t.mode)
	surfaces := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if token.Surface == "" {
			continue
		}
		if t.skipSpace && strings.TrimSpace(token.Surface) == "" {
			continue
		}
		surfaces = append(surfaces, token.Surface)
	}
	if len(surfaces) == 0 {
		return nil
	}
	return surfaces
}
