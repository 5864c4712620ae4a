/*
Package corpus loads the example utterances a chat bot learns from.

A corpus is an ordered list of strings. Sources can be local files (JSON, YAML or
plain text), HTTP(S) URLs, or named corpora stored in a SQLite database. Any
failure to fetch or decode a corpus is reported as an error wrapping
ErrUnavailable, so callers can keep serving their current model and report the
failure as a status.
*/
package corpus
