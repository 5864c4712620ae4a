/*
Package markov provides a small, in-memory, first-order Markov chain toolkit for
building chat bots that answer in the voice of a corpus.

A Model learns token-to-next-token transitions from a corpus of example
utterances. Frequency is encoded by repetition: a successor observed three times
appears three times in the successor list, and uniform selection over that list is
the sampling rule. A ReplyGenerator picks a seed token from the user's input (or
from the corpus's sentence starts) and walks the model for a bounded number of
steps, concatenating the tokens it visits without any separator.

Tokenization is pluggable through the Tokenizer interface. DefaultTokenizer splits
on script boundaries with a regular expression; the jatokenizer package provides a
morphological analyzer for Japanese.
*/
package markov
