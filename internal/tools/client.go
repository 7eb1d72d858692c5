package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/custodia-labs/corpora/internal/core/domain"
)

// DefaultBaseURL is the metadata API the tools run against.
const DefaultBaseURL = "https://api.metadata.bossdb.org/api/v2"

// DefaultTimeout bounds a single tool call.
const DefaultTimeout = 30 * time.Second

// Executor runs a parsed tool request.
type Executor interface {
	Execute(ctx context.Context, req Request) (any, error)
}

// Client executes tool requests against the metadata API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a tool client. An empty baseURL uses the default
// metadata API.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
}

// Execute dispatches a parsed request to its endpoint. Unknown tools
// return domain.ErrUnknownTool.
func (c *Client) Execute(ctx context.Context, req Request) (any, error) {
	switch req.Tool {
	case SearchDatasets:
		return c.get(ctx, "datasets", url.Values{
			"search": {paramString(req.Params, "query")},
			"limit":  {strconv.Itoa(paramInt(req.Params, "limit", DefaultSearchLimit))},
		})
	case ListCollections:
		return c.get(ctx, "collections", url.Values{
			"limit": {strconv.Itoa(paramInt(req.Params, "limit", DefaultListLimit))},
		})
	case GetDatasetDetails:
		id := paramString(req.Params, "dataset_id")
		if id == "" {
			return nil, fmt.Errorf("%w: get_dataset_details requires dataset_id", domain.ErrInvalidInput)
		}
		return c.get(ctx, "datasets/"+url.PathEscape(id), nil)
	case SearchPublications:
		return c.get(ctx, "publications", url.Values{
			"search": {paramString(req.Params, "query")},
			"limit":  {strconv.Itoa(paramInt(req.Params, "limit", DefaultSearchLimit))},
		})
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownTool, req.Tool)
	}
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (any, error) {
	u := c.baseURL + "/" + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build tool request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tool request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("tool request %s: unexpected status %d", endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read tool response: %w", err)
	}

	var result any
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode tool response: %w", err)
	}
	return result, nil
}

func paramString(params map[string]any, key string) string {
	if s, ok := params[key].(string); ok {
		return s
	}
	return ""
}

func paramInt(params map[string]any, key string, fallback int) int {
	switch v := params[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

var _ Executor = (*Client)(nil)
