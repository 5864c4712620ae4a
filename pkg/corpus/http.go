package corpus

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"time"
)

// maxBodySize caps how much of a response is read, so a misconfigured URL
// cannot exhaust memory.
const maxBodySize = 64 << 20

// HTTPSource fetches a corpus with a GET request.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// NewHTTPSource returns an HTTPSource for rawURL. A nil client is replaced by
// one with a 30 second timeout.
func NewHTTPSource(rawURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSource{URL: rawURL, Client: client}
}

// Load fetches and decodes the corpus. Any non-2xx status is unavailable. The
// format is taken from the URL path extension when it has one, then from the
// response Content-Type, and defaults to JSON.
func (s *HTTPSource) Load(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json, application/yaml, text/plain;q=0.5")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: GET %s: %s", ErrUnavailable, s.URL, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrUnavailable, s.URL, err)
	}

	entries, err := Decode(data, s.format(resp.Header.Get("Content-Type")))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, s.URL, err)
	}
	return entries, nil
}

func (s *HTTPSource) format(contentType string) Format {
	if u, err := url.Parse(s.URL); err == nil && path.Ext(u.Path) != "" {
		return FormatFromPath(u.Path)
	}
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "application/yaml", "application/x-yaml", "text/yaml":
		return FormatYAML
	case "text/plain":
		return FormatText
	default:
		return FormatJSON
	}
}

func (s *HTTPSource) String() string {
	return s.URL
}
