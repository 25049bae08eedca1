package tools

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ryno-Crypto-Mining-Services/braiins-pool-mcp-server-sub000/internal/braiins"
	"github.com/Ryno-Crypto-Mining-Services/braiins-pool-mcp-server-sub000/internal/cache"
	"github.com/Ryno-Crypto-Mining-Services/braiins-pool-mcp-server-sub000/internal/monitor"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// noopStore is a cache store that never hits, so every handler call reaches
// the stub API.
type noopStore struct{}

func (noopStore) Get(context.Context, string, interface{}) bool { return false }

func (noopStore) Set(context.Context, string, interface{}, time.Duration) {}

// stubAPI returns fixed values; err, when set, is returned by every method.
type stubAPI struct {
	err error
}

func (s *stubAPI) GetUserOverview(context.Context) (*braiins.UserOverview, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &braiins.UserOverview{Username: "acct"}, nil
}

func (s *stubAPI) GetWorkers(context.Context) (*braiins.WorkersList, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &braiins.WorkersList{}, nil
}

func (s *stubAPI) GetWorkerDetails(_ context.Context, worker string) (*braiins.WorkerDetails, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &braiins.WorkerDetails{Name: worker, Worker: braiins.Worker{State: "ok"}}, nil
}

func (s *stubAPI) GetWorkerHashrate(context.Context, string, map[string]string) (*braiins.WorkerHashrate, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &braiins.WorkerHashrate{}, nil
}

func (s *stubAPI) GetUserRewards(context.Context, map[string]string) (*braiins.UserRewards, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &braiins.UserRewards{}, nil
}

func (s *stubAPI) GetPoolStats(context.Context) (*braiins.PoolStats, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &braiins.PoolStats{}, nil
}

func (s *stubAPI) GetNetworkStats(context.Context) (*braiins.NetworkStats, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &braiins.NetworkStats{}, nil
}

func newTestRegistry(api *stubAPI) *Registry {
	svc := monitor.NewService(noopStore{}, cache.NewPolicy(cache.PolicyOverrides{Enabled: "false"}), api, testLogger())
	return NewRegistry(svc, testLogger())
}

func TestHandleWorkerDetails(t *testing.T) {
	r := newTestRegistry(&stubAPI{})

	out, err := r.handleWorkerDetails(context.Background(), map[string]interface{}{"worker": "rig1"})
	require.NoError(t, err)
	assert.Contains(t, out, "# Worker: rig1")
	assert.Contains(t, out, "State: ok")
}

func TestHandleWorkerDetailsMissingArgument(t *testing.T) {
	r := newTestRegistry(&stubAPI{})

	_, err := r.handleWorkerDetails(context.Background(), map[string]interface{}{})
	require.Error(t, err)

	apiErr, ok := braiins.AsError(err)
	require.True(t, ok)
	assert.Equal(t, braiins.ErrKindValidation, apiErr.Kind)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestHandleWorkerHashrateRejectsBadGroupBy(t *testing.T) {
	r := newTestRegistry(&stubAPI{})

	_, err := r.handleWorkerHashrate(context.Background(), map[string]interface{}{
		"worker":   "rig1",
		"group_by": "nonsense",
	})
	require.Error(t, err)

	apiErr, ok := braiins.AsError(err)
	require.True(t, ok)
	assert.Equal(t, braiins.ErrKindValidation, apiErr.Kind)
}

func TestHandleUserRewardsWeaklyTypedLimit(t *testing.T) {
	r := newTestRegistry(&stubAPI{})

	// JSON numbers arrive as float64; the decoder must accept them for an int
	// field.
	_, err := r.handleUserRewards(context.Background(), map[string]interface{}{"limit": float64(30)})
	require.NoError(t, err)

	_, err = r.handleUserRewards(context.Background(), map[string]interface{}{"limit": float64(9000)})
	require.Error(t, err)
}

func TestErrorPayloadCarriesKindAndStatus(t *testing.T) {
	err := &braiins.Error{
		Kind:   braiins.ErrKindUpstreamRejected,
		Status: 404,
		URL:    "https://pool.braiins.com/stats/json/btc",
		Body:   `{"error":"not found"}`,
	}

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(errorPayload(err)), &payload))

	assert.Equal(t, "upstream-rejected", payload["kind"])
	assert.Equal(t, float64(404), payload["status"])
	assert.Equal(t, "https://pool.braiins.com/stats/json/btc", payload["url"])
	assert.Contains(t, payload["upstream_body"], "not found")
}

func TestErrorPayloadPlainError(t *testing.T) {
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(errorPayload(assert.AnError)), &payload))

	assert.NotEmpty(t, payload["message"])
	_, hasKind := payload["kind"]
	assert.False(t, hasKind)
}
