// Package lunchmoney reads transactions from the Lunch Money REST API.
package lunchmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"confronto/internal/core"
	"confronto/internal/sources"
)

const (
	DefaultBaseURL   = "https://dev.lunchmoney.app"
	defaultTimeout   = 30 * time.Second
	transactionsPath = "/v1/transactions"
	// pageSize is the largest page the API accepts.
	pageSize = 1000
)

// Client handles communication with the Lunch Money API
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	pageSize   int
}

var _ sources.TransactionSource = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithPageSize overrides the page size, mostly for tests.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// NewClient creates a Lunch Money client. An empty baseURL selects
// DefaultBaseURL.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		pageSize:   pageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type transactionsResponse struct {
	Transactions []core.RawTransaction `json:"transactions"`
	HasMore      bool                  `json:"has_more"`
}

// errorResponse covers both shapes the API uses: a single message or a list.
type errorResponse struct {
	Name    string          `json:"name"`
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
}

func (e errorResponse) String() string {
	var parts []string
	if e.Name != "" {
		parts = append(parts, e.Name)
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if len(e.Error) > 0 {
		var one string
		var many []string
		switch {
		case json.Unmarshal(e.Error, &one) == nil:
			parts = append(parts, one)
		case json.Unmarshal(e.Error, &many) == nil:
			parts = append(parts, many...)
		}
	}
	return strings.Join(parts, ": ")
}

// FetchTransactions returns every transaction dated within [start, end],
// following pagination until the API reports no more pages.
func (c *Client) FetchTransactions(ctx context.Context, start, end core.Date) ([]core.RawTransaction, error) {
	var all []core.RawTransaction
	for offset := 0; ; {
		page, err := c.fetchPage(ctx, start, end, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Transactions...)
		if !page.HasMore || len(page.Transactions) == 0 {
			break
		}
		offset += len(page.Transactions)
	}

	slog.DebugContext(ctx, "Fetched transactions from Lunch Money",
		"start", start.String(), "end", end.String(), "count", len(all))
	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, start, end core.Date, offset int) (*transactionsResponse, error) {
	q := url.Values{}
	q.Set("start_date", start.String())
	q.Set("end_date", end.String())
	q.Set("limit", strconv.Itoa(c.pageSize))
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	endpoint := c.baseURL + transactionsPath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: execute request: %w", core.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %w", core.ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp errorResponse
		if err := json.Unmarshal(body, &errResp); err != nil || errResp.String() == "" {
			return nil, fmt.Errorf("%w: status %d: %s", core.ErrUpstream, resp.StatusCode, truncate(string(body), 200))
		}
		return nil, fmt.Errorf("%w: status %d: %s", core.ErrUpstream, resp.StatusCode, errResp)
	}

	var page transactionsResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("%w: decode transactions: %w", core.ErrUpstream, err)
	}
	return &page, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
