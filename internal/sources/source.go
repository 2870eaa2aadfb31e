package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/harsh16kumar/jobpilot/internal/jobs"
	"github.com/mitchellh/mapstructure"
)

const (
	// requestTimeout bounds every upstream call so a slow job board degrades
	// to an empty result instead of hanging the whole fetch cycle.
	requestTimeout = 8 * time.Second

	contentType = "application/json"
	userAgent   = "harsh16kumar/jobpilot"
)

// Source is a single job-board adapter. Search normalizes the provider's
// schema into the common Posting shape and does no business logic beyond
// field remapping. Adapters share no mutable state and are safe to invoke
// concurrently.
type Source interface {
	Name() string
	Search(ctx context.Context, keyword string) ([]*jobs.Posting, error)
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}

// getJSON performs a GET request and decodes the response body into target.
func getJSON(ctx context.Context, client *http.Client, rawURL string, q url.Values, headers map[string]string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", contentType)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	return json.Unmarshal(data, target)
}

// decodeItems maps loosely typed upstream items onto the provider's row type
// using the row's json tags.
func decodeItems[T any](items []any) ([]T, error) {
	var rows []T
	cfg := &mapstructure.DecoderConfig{
		Result:  &rows,
		TagName: "json",
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(items); err != nil {
		return nil, fmt.Errorf("decoding items: %w", err)
	}
	return rows, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
