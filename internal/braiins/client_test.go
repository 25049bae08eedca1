package braiins

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestClient(baseURL string, retryMax int, baseDelay time.Duration) *Client {
	return NewClient(Config{
		BaseURL:        baseURL,
		Timeout:        2 * time.Second,
		RetryMax:       retryMax,
		RetryBaseDelay: baseDelay,
	}, testLogger())
}

func TestClientParsesPoolStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stats/json/btc", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"btc":{"pool_hash_rate":12345.6,"hash_rate_unit":"Gh/s","pool_active_workers":4200,"luck_b10":"1.05","blocks_found":7}}`))
	}))
	defer srv.Close()

	stats, err := newTestClient(srv.URL, 3, time.Millisecond).GetPoolStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12345.6, stats.BTC.PoolHashRate)
	assert.Equal(t, int64(4200), stats.BTC.PoolActiveWorkers)
	assert.Equal(t, "1.05", stats.BTC.Luck10)
}

func TestClientBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(Config{
		BaseURL: srv.URL,
		Token:   "secret-token",
		Timeout: time.Second,
	}, testLogger())
	_, err := client.GetNetworkStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", gotAuth)
}

func TestClientNoTokenSendsNoAuthHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 0, time.Millisecond).GetNetworkStats(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"no such account"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 3, time.Millisecond).GetUserOverview(context.Background())
	require.Error(t, err)

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, ErrKindUpstreamRejected, apiErr.Kind)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Contains(t, apiErr.Body, "no such account")
	assert.Contains(t, apiErr.URL, "/accounts/profile/json/btc")
	assert.Equal(t, int64(1), calls.Load())
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 2, time.Millisecond).GetPoolStats(context.Background())
	require.Error(t, err)

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, ErrKindUpstreamServer, apiErr.Kind)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	// Initial attempt plus exactly retryMax retries.
	assert.Equal(t, int64(3), calls.Load())
}

func TestClientRecoversAfterTransientServerError(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			http.Error(w, "still warming up", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"btc":{"blocks_found":1}}`))
	}))
	defer srv.Close()

	stats, err := newTestClient(srv.URL, 3, time.Millisecond).GetPoolStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.BTC.BlocksFound)
	assert.Equal(t, int64(3), calls.Load())
}

func TestClientBackoffIsExponential(t *testing.T) {
	var stamps []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stamps = append(stamps, time.Now())
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	base := 40 * time.Millisecond
	_, err := newTestClient(srv.URL, 2, base).GetPoolStats(context.Background())
	require.Error(t, err)
	require.Len(t, stamps, 3)

	first := stamps[1].Sub(stamps[0])
	second := stamps[2].Sub(stamps[1])
	assert.GreaterOrEqual(t, first, base)
	assert.GreaterOrEqual(t, second, 2*base)
	assert.Less(t, first, 4*base)
	assert.Less(t, second, 8*base)
}

func TestClientBackoffHonorsCancellation(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	// The base delay dwarfs the test timeout; only the cancellation can end
	// the backoff sleep.
	begin := time.Now()
	_, err := newTestClient(srv.URL, 3, 10*time.Second).GetPoolStats(ctx)
	require.Error(t, err)
	assert.Less(t, time.Since(begin), 2*time.Second)

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, ErrKindCannotConnect, apiErr.Kind)
	assert.Equal(t, int64(1), calls.Load())
}

func TestClientNegativeRetryMaxStillRequestsOnce(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, -5, time.Millisecond).GetPoolStats(context.Background())
	require.Error(t, err)

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, ErrKindUpstreamServer, apiErr.Kind)
	assert.Equal(t, int64(1), calls.Load())
}

func TestClientCannotConnect(t *testing.T) {
	// Nothing listens here.
	_, err := newTestClient("http://127.0.0.1:1", 0, time.Millisecond).GetPoolStats(context.Background())
	require.Error(t, err)

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, ErrKindCannotConnect, apiErr.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
}

func TestClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(Config{
		BaseURL: srv.URL,
		Timeout: 50 * time.Millisecond,
	}, testLogger())
	_, err := client.GetPoolStats(context.Background())
	require.Error(t, err)

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, ErrKindTimeout, apiErr.Kind)
	assert.Equal(t, http.StatusGatewayTimeout, apiErr.Status)
}

func TestClientUndecodableBody(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("<html>definitely not json</html>"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 3, time.Millisecond).GetPoolStats(context.Background())
	require.Error(t, err)

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, ErrKindUpstreamServer, apiErr.Kind)
	assert.Equal(t, int64(1), calls.Load())
}

const workersFixture = `{"btc":{"workers":{
	"acct.rig1":{"state":"ok","last_share":1700000000,"hash_rate_5m":100,"hash_rate_unit":"Gh/s"},
	"acct.rig2":{"state":"low","last_share":1700000100,"hash_rate_5m":50,"hash_rate_unit":"Gh/s"}
}}}`

func TestClientWorkerDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/workers/json/btc", r.URL.Path)
		_, _ = w.Write([]byte(workersFixture))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 0, time.Millisecond)

	t.Run("full roster name", func(t *testing.T) {
		details, err := client.GetWorkerDetails(context.Background(), "acct.rig1")
		require.NoError(t, err)
		assert.Equal(t, "acct.rig1", details.Name)
		assert.Equal(t, "ok", details.Worker.State)
	})

	t.Run("bare worker suffix", func(t *testing.T) {
		details, err := client.GetWorkerDetails(context.Background(), "rig2")
		require.NoError(t, err)
		assert.Equal(t, "acct.rig2", details.Name)
		assert.Equal(t, "low", details.Worker.State)
	})

	t.Run("unknown worker", func(t *testing.T) {
		_, err := client.GetWorkerDetails(context.Background(), "rig9")
		require.Error(t, err)
		apiErr, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, ErrKindValidation, apiErr.Kind)
		assert.Equal(t, http.StatusNotFound, apiErr.Status)
	})

	t.Run("empty worker name", func(t *testing.T) {
		_, err := client.GetWorkerDetails(context.Background(), "")
		require.Error(t, err)
		apiErr, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, ErrKindValidation, apiErr.Kind)
		assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	})
}

func TestClientQueryParamsPassThrough(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 0, time.Millisecond)
	_, err := client.GetWorkerHashrate(context.Background(), "rig1", map[string]string{"group_by": "worker"})
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "worker=rig1")
	assert.Contains(t, gotQuery, "group_by=worker")
}
