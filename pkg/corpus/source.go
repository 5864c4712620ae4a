package corpus

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnavailable is wrapped by every error that means a corpus could not be
// fetched or decoded.
var ErrUnavailable = errors.New("corpus unavailable")

// Source supplies a complete corpus on each call to Load.
type Source interface {
	// Load fetches and decodes the whole corpus. Errors wrap ErrUnavailable.
	Load(ctx context.Context) ([]string, error)
	// String returns the identifier the source was opened from.
	String() string
}

// Format is an on-disk or on-the-wire corpus encoding.
type Format int

const (
	// FormatJSON is a JSON array of strings.
	FormatJSON Format = iota
	// FormatYAML is a YAML sequence of strings.
	FormatYAML
	// FormatText is one utterance per non-blank line.
	FormatText
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatText:
		return "text"
	default:
		return "json"
	}
}

// sqlitePrefix marks identifiers of corpora stored in a SQLite database.
const sqlitePrefix = "sqlite:"

// Open returns the Source described by identifier:
//
//	https://example.com/bot.json    fetched over HTTP(S)
//	sqlite:./data/corpus.db#bot     the corpus named "bot" in a SQLite database
//	file:./bot.yaml or ./bot.yaml   a local file
//
// Open only parses the identifier; nothing is fetched until Load.
func Open(identifier string) (Source, error) {
	switch {
	case identifier == "":
		return nil, fmt.Errorf("%w: empty source identifier", ErrUnavailable)
	case strings.HasPrefix(identifier, "http://"), strings.HasPrefix(identifier, "https://"):
		return NewHTTPSource(identifier, nil), nil
	case strings.HasPrefix(identifier, sqlitePrefix):
		dsn, name, ok := strings.Cut(strings.TrimPrefix(identifier, sqlitePrefix), "#")
		if !ok || dsn == "" || name == "" {
			return nil, fmt.Errorf("%w: sqlite source %q must look like sqlite:<dsn>#<name>", ErrUnavailable, identifier)
		}
		return NewSQLiteSource(dsn, name), nil
	default:
		return NewFileSource(strings.TrimPrefix(identifier, "file:")), nil
	}
}

// Load is a convenience wrapper that opens identifier and loads it.
func Load(ctx context.Context, identifier string) ([]string, error) {
	src, err := Open(identifier)
	if err != nil {
		return nil, err
	}
	return src.Load(ctx)
}

// FormatFromPath guesses the corpus format from a file name or URL path.
// Unknown extensions are treated as JSON.
func FormatFromPath(p string) Format {
	switch strings.ToLower(path.Ext(p)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".txt", ".text":
		return FormatText
	default:
		return FormatJSON
	}
}

// errNotAList is returned for JSON or YAML documents that decode to null.
var errNotAList = errors.New("corpus is not a list of strings")

// Decode parses data in the given format into a corpus. An empty list is a
// legal corpus; a null or empty JSON/YAML document is not.
func Decode(data []byte, format Format) ([]string, error) {
	var entries []string
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("invalid yaml corpus: %w", err)
		}
		if entries == nil {
			return nil, fmt.Errorf("invalid yaml corpus: %w", errNotAList)
		}
	case FormatText:
		scanner := bufio.NewScanner(bytes.NewReader(data))
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimRight(scanner.Text(), "\r")
			if strings.TrimSpace(line) == "" {
				continue
			}
			entries = append(entries, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("invalid text corpus: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("invalid json corpus: %w", err)
		}
		if entries == nil {
			return nil, fmt.Errorf("invalid json corpus: %w", errNotAList)
		}
	}
	if entries == nil {
		entries = []string{}
	}
	return entries, nil
}
