package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/trebuchet-org/deltasim/internal/usecase"
)

const defaultServerURL = "http://127.0.0.1:9000"

// serverClient talks to the HTTP API of a running deltasim server
type serverClient struct {
	baseURL string
	http    *retryablehttp.Client
}

func newServerClient(baseURL string, log *slog.Logger) *serverClient {
	c := retryablehttp.NewClient()
	c.RetryMax = 3
	c.RetryWaitMin = 200 * time.Millisecond
	c.RetryWaitMax = 2 * time.Second
	c.HTTPClient.Timeout = 2 * time.Minute
	c.Logger = log

	return &serverClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    c,
	}
}

// Health fetches the server's fork health report
func (c *serverClient) Health(ctx context.Context) (*usecase.HealthReport, error) {
	var report usecase.HealthReport
	if err := c.do(ctx, http.MethodGet, "/health", nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// RefreshFork asks the server to replace the fork for networkID. A 400
// response still decodes into a result carrying the server's message.
func (c *serverClient) RefreshFork(ctx context.Context, networkID string) (*usecase.RefreshForkResult, error) {
	body, err := json.Marshal(map[string]string{"networkId": networkID})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	var result usecase.RefreshForkResult
	if err := c.do(ctx, http.MethodPost, "/admin/refresh-fork", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *serverClient) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach server at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("server returned %s for %s %s", resp.Status, method, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
