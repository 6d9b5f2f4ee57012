package collab

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// BrowseClient drives the browsing-simulation service, which biases the
// recommendation feed toward the intent before collection starts. The
// service streams newline-delimited progress lines while it works.
type BrowseClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ BrowsingBias = (*BrowseClient)(nil)

func NewBrowseClient(baseURL, apiKey string) *BrowseClient {
	return &BrowseClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			// Warm-up scrolls and interacts with a live feed; it is the
			// slowest collaborator call.
			Timeout: 5 * time.Minute,
		},
	}
}

type warmupRequest struct {
	Query string `json:"query"`
}

func (c *BrowseClient) Warmup(ctx context.Context, text string, emit func(line string)) error {
	body, err := json.Marshal(warmupRequest{Query: text})
	if err != nil {
		return collaboratorErr("browse", fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/warmup", bytes.NewReader(body))
	if err != nil {
		return collaboratorErr("browse", fmt.Errorf("new request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return collaboratorErr("browse", fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return collaboratorErr("browse", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))))
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			emit(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return collaboratorErr("browse", fmt.Errorf("read progress stream: %w", err))
	}

	return nil
}
