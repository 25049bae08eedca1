package braiins

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Ryno-Crypto-Mining-Services/braiins-pool-mcp-server-sub000/pkg/metrics"
)

const (
	pathProfile       = "/accounts/profile/json/btc"
	pathWorkers       = "/accounts/workers/json/btc"
	pathHashrateDaily = "/accounts/hash_rate_daily/json/btc"
	pathRewards       = "/accounts/rewards/json/btc"
	pathPoolStats     = "/stats/json/btc"
	pathNetworkStats  = "/network/stats/json/btc"
)

// Config configures the upstream client.
type Config struct {
	BaseURL        string
	Token          string
	Timeout        time.Duration
	RetryMax       int
	RetryBaseDelay time.Duration
}

// Client calls the Braiins Pool API with bounded exponential-backoff retries.
// Server-class responses and transport failures are retried; client-class
// responses fail immediately. Every failure surfaces as a typed *Error.
type Client struct {
	baseURL        string
	token          string
	retryMax       int
	retryBaseDelay time.Duration
	httpClient     *http.Client
	logger         *logrus.Logger
}

// NewClient creates a Client. A missing token is allowed; requests then go out
// unauthenticated and the upstream decides whether to reject them.
func NewClient(cfg Config, logger *logrus.Logger) *Client {
	retryMax := cfg.RetryMax
	if retryMax < 0 {
		retryMax = 0
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		token:          cfg.Token,
		retryMax:       retryMax,
		retryBaseDelay: cfg.RetryBaseDelay,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		logger:         logger,
	}
}

// GetUserOverview fetches the account profile.
func (c *Client) GetUserOverview(ctx context.Context) (*UserOverview, error) {
	var out UserOverview
	if err := c.getJSON(ctx, "user-overview", pathProfile, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetWorkers fetches the full worker roster.
func (c *Client) GetWorkers(ctx context.Context) (*WorkersList, error) {
	var out WorkersList
	if err := c.getJSON(ctx, "workers-list", pathWorkers, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetWorkerDetails fetches the roster and extracts a single worker. The name
// matches either the full "account.worker" form or the bare worker suffix.
func (c *Client) GetWorkerDetails(ctx context.Context, worker string) (*WorkerDetails, error) {
	if worker == "" {
		return nil, &Error{
			Kind:   ErrKindValidation,
			Status: http.StatusBadRequest,
			Err:    errors.New("worker name is required"),
		}
	}

	list, err := c.GetWorkers(ctx)
	if err != nil {
		return nil, err
	}

	for name, w := range list.BTC.Workers {
		if name == worker || strings.TrimPrefix(name, nameAccount(name)+".") == worker {
			return &WorkerDetails{Name: name, Worker: w}, nil
		}
	}

	return nil, &Error{
		Kind:   ErrKindValidation,
		Status: http.StatusNotFound,
		URL:    c.baseURL + pathWorkers,
		Err:    fmt.Errorf("worker %q not found", worker),
	}
}

// GetWorkerHashrate fetches the daily hash rate timeseries. Extra query
// parameters (e.g. group_by) pass through verbatim.
func (c *Client) GetWorkerHashrate(ctx context.Context, worker string, params map[string]string) (*WorkerHashrate, error) {
	query := url.Values{}
	if worker != "" {
		query.Set("worker", worker)
	}
	for k, v := range params {
		query.Set(k, v)
	}

	var out WorkerHashrate
	if err := c.getJSON(ctx, "worker-hashrate", pathHashrateDaily, query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUserRewards fetches the daily reward history. Query parameters (e.g.
// limit) pass through verbatim.
func (c *Client) GetUserRewards(ctx context.Context, params map[string]string) (*UserRewards, error) {
	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}

	var out UserRewards
	if err := c.getJSON(ctx, "user-rewards", pathRewards, query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPoolStats fetches pool-wide aggregates.
func (c *Client) GetPoolStats(ctx context.Context) (*PoolStats, error) {
	var out PoolStats
	if err := c.getJSON(ctx, "pool-stats", pathPoolStats, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetNetworkStats fetches Bitcoin network aggregates.
func (c *Client) GetNetworkStats(ctx context.Context) (*NetworkStats, error) {
	var out NetworkStats
	if err := c.getJSON(ctx, "network-stats", pathNetworkStats, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// getJSON performs one logical GET with retries. Attempt n waits
// retryBaseDelay * 2^(n-1) before firing, so the default 1s base yields 1s,
// 2s, 4s between the four total attempts.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values, dest interface{}) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if attempt > 0 {
			metrics.UpstreamRetries.WithLabelValues(endpoint).Inc()
			delay := c.retryBaseDelay * time.Duration(1<<(attempt-1))
			c.logger.WithFields(logrus.Fields{
				"endpoint": endpoint,
				"attempt":  attempt,
				"delay":    delay.String(),
			}).Warn("retrying upstream request")

			select {
			case <-ctx.Done():
				return classifyTransport(ctx.Err(), reqURL)
			case <-time.After(delay):
			}
		}

		done, err := c.doOnce(ctx, endpoint, reqURL, dest)
		if done {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// doOnce performs a single request. done=true means the outcome is final and
// must not be retried.
func (c *Client) doOnce(ctx context.Context, endpoint, reqURL string, dest interface{}) (done bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return true, &Error{Kind: ErrKindValidation, Status: http.StatusBadRequest, URL: reqURL, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpoint, "0").Inc()
		return false, classifyTransport(err, reqURL)
	}
	defer resp.Body.Close()

	metrics.UpstreamRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, classifyTransport(err, reqURL)
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return false, &Error{
			Kind:   ErrKindUpstreamServer,
			Status: resp.StatusCode,
			URL:    reqURL,
			Body:   string(body),
		}
	case resp.StatusCode >= http.StatusBadRequest:
		// Retrying cannot change a semantically invalid request's outcome.
		return true, &Error{
			Kind:   ErrKindUpstreamRejected,
			Status: resp.StatusCode,
			URL:    reqURL,
			Body:   string(body),
		}
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return true, &Error{
			Kind:   ErrKindUpstreamServer,
			Status: http.StatusBadGateway,
			URL:    reqURL,
			Err:    fmt.Errorf("undecodable upstream body: %w", err),
		}
	}
	return true, nil
}

// classifyTransport maps a no-response failure to its error kind: timeouts are
// distinguished from connection refused / DNS failures.
func classifyTransport(err error, reqURL string) *Error {
	kind := ErrKindCannotConnect
	status := http.StatusServiceUnavailable

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = ErrKindTimeout
		status = http.StatusGatewayTimeout
	}

	return &Error{Kind: kind, Status: status, URL: reqURL, Err: err}
}

// nameAccount returns the account portion of an "account.worker" roster name.
func nameAccount(name string) string {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}
