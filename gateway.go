package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Gateway is the pure I/O boundary to the snapshot-diff backend. It carries
// no caching logic; the ComparisonCache sits above it.
type Gateway interface {
	SubmitComparison(ctx context.Context, req ComparisonRequest) (*ComparisonResult, error)
	FetchComparison(ctx context.Context, id string) (*ComparisonResult, error)
	ListHistory(ctx context.Context) ([]HistoryEntry, error)
	ListJobs(ctx context.Context) ([]Job, error)
	ClearAllData(ctx context.Context) error
}

// AssetResolver turns an opaque image descriptor path into a fetchable URL.
type AssetResolver interface {
	AssetURL(path string) string
}

// HTTPGateway talks to the backend REST API described in the service's
// swagger config: POST /snap-shots, GET /snap-shots, GET /snap-shot/{id},
// GET /jobs, GET /admin/clean-up.
type HTTPGateway struct {
	baseURL  string
	assetURL string
	client   *http.Client
}

func NewHTTPGateway(baseURL string, assetURL string) *HTTPGateway {
	if assetURL == "" {
		assetURL = baseURL
	}
	return &HTTPGateway{
		baseURL:  strings.TrimRight(baseURL, "/"),
		assetURL: strings.TrimRight(assetURL, "/"),
		client:   &http.Client{Timeout: 5 * time.Minute},
	}
}

// StatusError reports a non-2xx backend response.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.Code)
}

func (g *HTTPGateway) SubmitComparison(ctx context.Context, req ComparisonRequest) (*ComparisonResult, error) {
	var result ComparisonResult
	if err := g.do(ctx, http.MethodPost, "/snap-shots", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (g *HTTPGateway) FetchComparison(ctx context.Context, id string) (*ComparisonResult, error) {
	var result ComparisonResult
	if err := g.do(ctx, http.MethodGet, "/snap-shot/"+id, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (g *HTTPGateway) ListHistory(ctx context.Context) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	if err := g.do(ctx, http.MethodGet, "/snap-shots", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (g *HTTPGateway) ListJobs(ctx context.Context) ([]Job, error) {
	var jobs []Job
	if err := g.do(ctx, http.MethodGet, "/jobs", nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (g *HTTPGateway) ClearAllData(ctx context.Context) error {
	// The wipe endpoint guarantees no body contract, only the status code.
	return g.do(ctx, http.MethodGet, "/admin/clean-up", nil, nil)
}

// AssetURL joins the static asset base with a descriptor path by simple
// concatenation. Paths are never parsed or validated beyond this.
func (g *HTTPGateway) AssetURL(path string) string {
	return g.assetURL + "/" + strings.TrimLeft(path, "/")
}

func (g *HTTPGateway) do(ctx context.Context, method string, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	request, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := g.client.Do(request)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		io.Copy(io.Discard, response.Body)
		return &StatusError{Method: method, Path: path, Code: response.StatusCode}
	}
	if out == nil {
		io.Copy(io.Discard, response.Body)
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
