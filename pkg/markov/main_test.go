package markov

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
)

// scriptedChooser returns pre-recorded picks in order, reduced modulo n, and
// records every n it was asked for. Once the script runs out it always picks 0.
type scriptedChooser struct {
	picks []int
	asked []int
}

func (c *scriptedChooser) IntN(n int) int {
	c.asked = append(c.asked, n)
	if len(c.picks) == 0 {
		return 0
	}
	p := c.picks[0]
	c.picks = c.picks[1:]
	return p % n
}

// spaceTokenizer splits on whitespace so tests can spell out token boundaries.
var spaceTokenizer = TokenizerFunc(strings.Fields)

// setupModel creates a model trained on corpus with the whitespace tokenizer.
func setupModel(t *testing.T, corpus ...string) *Model {
	t.Helper()
	m := NewModel(spaceTokenizer)
	m.Learn(corpus)
	return m
}

// setupGenerator creates a generator over the whitespace tokenizer with a
// seeded source so failures are reproducible.
func setupGenerator(opts ...GenerateOption) *ReplyGenerator {
	opts = append([]GenerateOption{WithChooser(rand.New(rand.NewPCG(1, 2)))}, opts...)
	return NewReplyGenerator(spaceTokenizer, opts...)
}

var (
	benchmarkCorpus []string
	corpusOnce      sync.Once
)

// createBenchmarkCorpus builds a synthetic corpus with a small vocabulary so the
// successor lists grow long.
func createBenchmarkCorpus() []string {
	corpusOnce.Do(func() {
		r := rand.New(rand.NewPCG(7, 7))
		words := make([]string, 200)
		for i := range words {
			words[i] = fmt.Sprintf("w%d", i)
		}
		for range 5000 {
			n := 3 + r.IntN(20)
			sentence := make([]string, n)
			for j := range sentence {
				sentence[j] = words[r.IntN(len(words))]
			}
			benchmarkCorpus = append(benchmarkCorpus, strings.Join(sentence, " ")+" 。")
		}
	})
	return benchmarkCorpus
}
