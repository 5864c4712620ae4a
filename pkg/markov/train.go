package markov

import (
	"log/slog"
)

// Learn rebuilds the model from corpus. Prior state is discarded first, so after
// Learn returns the model reflects this corpus and nothing else; learning is
// never incremental.
//
// Each entry is tokenized. Entries that yield no tokens are skipped entirely.
// Otherwise the first token is appended to the sentence starts and, for every
// adjacent pair (t[i], t[i+1]), t[i+1] is appended to the successor list of t[i].
//
// The new table is built off to the side and swapped in at the end, so a
// partially learned model is never observable through the Model's methods.
func (m *Model) Learn(corpus []string) {
	transitions := make(map[string][]string)
	var starts []string
	var learned, skipped int

	for _, entry := range corpus {
		tokens := m.tokenizer.Tokenize(entry)
		if len(tokens) == 0 {
			skipped++
			continue
		}
		starts = append(starts, tokens[0])
		for i := 0; i < len(tokens)-1; i++ {
			transitions[tokens[i]] = append(transitions[tokens[i]], tokens[i+1])
		}
		learned++
	}

	m.Reset()
	m.transitions = transitions
	m.starts = starts
	m.learned = learned
	m.skipped = skipped

	m.logger.Info("Learning completed",
		slog.Int("entries_learned", learned),
		slog.Int("entries_skipped", skipped),
		slog.Int("tokens", len(transitions)),
		slog.Int("starts", len(starts)),
	)
}
