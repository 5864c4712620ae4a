package markov

// ModelStats holds aggregated statistics for a single Model.
type ModelStats struct {
	Tokens         int `json:"tokens"`          // The number of tokens with at least one successor.
	Transitions    int `json:"transitions"`     // The total number of observed adjacencies, duplicates included.
	Starts         int `json:"starts"`          // The number of sentence starts, duplicates included.
	UniqueStarts   int `json:"unique_starts"`   // The number of distinct tokens that can start a reply.
	EntriesLearned int `json:"entries_learned"` // Corpus entries that produced at least one token.
	EntriesSkipped int `json:"entries_skipped"` // Corpus entries that produced no tokens.
}

// Stats returns a snapshot of statistics for the model.
func (m *Model) Stats() ModelStats {
	stats := ModelStats{
		Tokens:         len(m.transitions),
		Starts:         len(m.starts),
		EntriesLearned: m.learned,
		EntriesSkipped: m.skipped,
	}
	for _, next := range m.transitions {
		stats.Transitions += len(next)
	}

	unique := make(map[string]struct{}, len(m.starts))
	for _, start := range m.starts {
		unique[start] = struct{}{}
	}
	stats.UniqueStarts = len(unique)

	return stats
}
