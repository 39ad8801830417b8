package zepto

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/storescan/zepto-scraper/internal/domain"
	"github.com/storescan/zepto-scraper/internal/infrastructure/metrics"
)

const (
	// SearchMode tells the API the query was typed by a user
	SearchMode = "TYPED"

	// storeETAMinutes is the delivery estimate advertised in the store_etas header
	storeETAMinutes = 9

	// maxErrorBodyBytes bounds how much of a failed response is logged
	maxErrorBodyBytes = 500
)

// ClientConfig configures the search API client
type ClientConfig struct {
	BaseURL            string
	SearchPath         string
	Timeout            time.Duration
	InsecureSkipVerify bool
	RequestsPerSecond  float64
	Burst              int
	// Headers are sent on every request: browser/app headers and session secrets
	Headers map[string]string
}

// Client handles communication with the Zepto search API
type Client struct {
	httpClient  *http.Client
	endpoint    string
	headers     map[string]string
	rateLimiter *rate.Limiter
	logger      *zap.Logger
	metrics     *metrics.Metrics
	newID       func() string
}

// searchPayload is the JSON body of a search request
type searchPayload struct {
	Query      string `json:"query"`
	PageNumber int    `json:"pageNumber"`
	IntentID   string `json:"intentId"`
	Mode       string `json:"mode"`
}

// NewClient creates a new search API client
func NewClient(cfg ClientConfig, logger *zap.Logger, m *metrics.Metrics) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for intercepting proxies
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		if v != "" {
			headers[k] = v
		}
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		endpoint:    strings.TrimRight(cfg.BaseURL, "/") + cfg.SearchPath,
		headers:     headers,
		rateLimiter: rate.NewLimiter(limit, burst),
		logger:      logger.Named("zepto"),
		metrics:     m,
		newID:       uuid.NewString,
	}
}

// Search fetches one result page. It never retries; the error wraps
// domain.ErrAuthFailure, domain.ErrFetchFailure or domain.ErrMalformedResponse.
func (c *Client) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	start := time.Now()
	resp, err := c.search(ctx, req)
	c.metrics.ObserveFetch(outcomeOf(err), time.Since(start))
	return resp, err
}

func (c *Client) search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrFetchFailure, err)
	}

	body, err := json.Marshal(searchPayload{
		Query:      req.Query,
		PageNumber: req.PageNumber,
		IntentID:   c.newID(),
		Mode:       SearchMode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", domain.ErrFetchFailure, err)
	}
	c.setHeaders(httpReq, req.StoreID)

	c.logger.Debug("search request",
		zap.String("store_id", req.StoreID),
		zap.String("query", req.Query),
		zap.Int("page", req.PageNumber))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := readLimitedBody(resp.Body, maxErrorBodyBytes)
		c.logger.Warn("search API error response",
			zap.Int("status", resp.StatusCode),
			zap.String("store_id", req.StoreID),
			zap.String("query", req.Query),
			zap.Int("page", req.PageNumber),
			zap.ByteString("body", snippet))

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, fmt.Errorf("%w: status %d", domain.ErrAuthFailure, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: status %d", domain.ErrFetchFailure, resp.StatusCode)
	}

	return decodeSearchResponse(resp.Body)
}

// setHeaders applies the static headers followed by the per-request store and request ids
func (c *Client) setHeaders(req *http.Request, storeID string) {
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", "application/json")

	req.Header.Set("storeId", storeID)
	req.Header.Set("store_id", storeID)
	req.Header.Set("store_ids", storeID)
	req.Header.Set("store_etas", fmt.Sprintf(`{"%s":%d}`, storeID, storeETAMinutes))
	req.Header.Set("requestId", c.newID())
	req.Header.Set("request_id", c.newID())
}

// decodeSearchResponse parses a response body into the fields the scraper uses.
// An absent hasReachedEnd counts as the end of results.
func decodeSearchResponse(r io.Reader) (*domain.SearchResponse, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var body any
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrMalformedResponse, err)
	}

	root := newNode(body)
	if obj, ok := root.object(); !ok || len(obj) == 0 {
		return nil, fmt.Errorf("%w: empty or non-object body", domain.ErrMalformedResponse)
	}

	hasReachedEnd := true
	if v, ok := root.get("hasReachedEnd").v.(bool); ok {
		hasReachedEnd = v
	}
	layout, _ := root.get("layout").v.([]any)

	return &domain.SearchResponse{
		TotalProductCount: int(root.get("totalProductCount").int()),
		HasReachedEnd:     hasReachedEnd,
		PageProductCount:  int(root.get("pageProductCount").int()),
		Layout:            layout,
	}, nil
}

// readLimitedBody reads at most limit bytes of r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, domain.ErrAuthFailure):
		return metrics.OutcomeAuth
	case errors.Is(err, domain.ErrMalformedResponse):
		return metrics.OutcomeMalformed
	default:
		return metrics.OutcomeFetch
	}
}
