package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
	"github.com/google/uuid"
)

// HTTPClient implements DataSource by calling the LiftLog REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// get fetches path and decodes the JSON body into out. A 404 maps to
// storage.ErrNotFound.
func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("httpclient: %s: %w", path, storage.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) ListExercises(ctx context.Context, includeArchived bool) ([]models.Exercise, error) {
	params := url.Values{}
	if includeArchived {
		params.Set("archived", "true")
	}
	var exercises []models.Exercise
	if err := c.get(ctx, "/api/v1/exercises", params, &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

func (c *HTTPClient) GetExercise(ctx context.Context, id uuid.UUID) (*models.Exercise, error) {
	var ex models.Exercise
	if err := c.get(ctx, "/api/v1/exercises/"+id.String(), nil, &ex); err != nil {
		return nil, err
	}
	return &ex, nil
}

func (c *HTTPClient) ListRecords(ctx context.Context, exerciseID uuid.UUID, before *time.Time) ([]models.RecordHeader, error) {
	params := url.Values{}
	if before != nil {
		params.Set("before", before.Format("2006-01-02"))
	}
	var records []models.RecordHeader
	if err := c.get(ctx, "/api/v1/exercises/"+exerciseID.String()+"/records", params, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *HTTPClient) ListRecordsBetween(ctx context.Context, start, end time.Time) ([]models.RecordHeader, error) {
	params := url.Values{}
	params.Set("start", start.Format(time.RFC3339))
	params.Set("end", end.Format(time.RFC3339))
	var records []models.RecordHeader
	if err := c.get(ctx, "/api/v1/records", params, &records); err != nil {
		return nil, err
	}
	return records, nil
}
