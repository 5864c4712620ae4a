package corpus

import (
	"context"
	"fmt"
	"os"
)

// FileSource reads a corpus from a local file. The format follows the file
// extension.
type FileSource struct {
	Path   string
	Format Format
}

// NewFileSource returns a FileSource for path, guessing the format from its
// extension.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path, Format: FormatFromPath(path)}
}

// Load reads and decodes the file.
func (s *FileSource) Load(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, s.Path, err)
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	entries, err := Decode(data, s.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, s.Path, err)
	}
	return entries, nil
}

func (s *FileSource) String() string {
	return s.Path
}
