package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// maxErrorBody caps how much of a failed response is kept in StatusError.
const maxErrorBody = 512

type RESTClient struct {
	baseURL    string
	limit      int
	httpClient *http.Client
}

// NewRESTClient builds a client for the trades feed. A zero limit leaves the
// page size to the upstream default.
func NewRESTClient(baseURL string, timeout time.Duration, limit int) *RESTClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &RESTClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		limit:      limit,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchTrades returns the latest batch of raw trade records, newest first as
// served upstream. Records are left undecoded so one bad entry cannot fail
// the whole batch.
func (c *RESTClient) FetchTrades(ctx context.Context) ([]json.RawMessage, error) {
	endpoint := c.baseURL + tradesPath
	if c.limit > 0 {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(c.limit))
		endpoint += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var raws []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raws); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return raws, nil
}
