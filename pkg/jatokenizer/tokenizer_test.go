package jatokenizer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	shared     *Tokenizer
	sharedErr  error
	sharedOnce sync.Once
)

// ipaTokenizer loads the IPA dictionary once for the whole test binary.
func ipaTokenizer(t *testing.T) *Tokenizer {
	t.Helper()
	sharedOnce.Do(func() {
		shared, sharedErr = New()
	})
	require.NoError(t, sharedErr)
	return shared
}

func TestTokenize(t *testing.T) {
	tok := ipaTokenizer(t)

	assert.Equal(t, []string{"私", "は", "元気", "です"}, tok.Tokenize("私は元気です"))
	assert.Equal(t, []string{"元気", "です", "か", "？"}, tok.Tokenize("元気ですか？"))
	assert.Nil(t, tok.Tokenize(""))
}

func TestTokenizeKeepsSurfaceText(t *testing.T) {
	tok := ipaTokenizer(t)

	const text = "すもももももももものうち。"
	joined := ""
	for _, s := range tok.Tokenize(text) {
		joined += s
	}
	assert.Equal(t, text, joined, "concatenated surfaces must reproduce the input")
}

func TestWithSkipSpace(t *testing.T) {
	tok, err := New(WithSkipSpace())
	require.NoError(t, err)

	for _, s := range tok.Tokenize("こんにちは 世界") {
		assert.NotEqual(t, " ", s)
	}
}

func TestNewUnknownDictionary(t *testing.T) {
	_, err := New(WithDictionary("klingon"))
	assert.ErrorContains(t, err, "unknown dictionary")
}
