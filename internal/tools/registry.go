// Package tools registers the MCP tools and dispatches calls into the monitor
// service: decode arguments, validate, fetch, render markdown.
package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"

	"github.com/Ryno-Crypto-Mining-Services/braiins-pool-mcp-server-sub000/internal/braiins"
	"github.com/Ryno-Crypto-Mining-Services/braiins-pool-mcp-server-sub000/internal/monitor"
	"github.com/Ryno-Crypto-Mining-Services/braiins-pool-mcp-server-sub000/pkg/metrics"
)

// Registry owns tool registration and dispatch.
type Registry struct {
	svc      *monitor.Service
	validate *validator.Validate
	logger   *logrus.Logger
}

// NewRegistry creates the tool registry around a monitor service.
func NewRegistry(svc *monitor.Service, logger *logrus.Logger) *Registry {
	return &Registry{
		svc:      svc,
		validate: validator.New(),
		logger:   logger,
	}
}

// Register adds all seven monitoring tools to the MCP server.
func (r *Registry) Register(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("get_user_overview",
		mcp.WithDescription("Account profile: confirmed/unconfirmed rewards, aggregate hash rates and worker counts."),
	), r.dispatch("get_user_overview", r.handleUserOverview))

	s.AddTool(mcp.NewTool("list_workers",
		mcp.WithDescription("All workers on the account with state, hash rates and share counts."),
	), r.dispatch("list_workers", r.handleListWorkers))

	s.AddTool(mcp.NewTool("get_worker_details",
		mcp.WithDescription("State, hash rates and share counts of a single worker."),
		mcp.WithString("worker", mcp.Required(),
			mcp.Description("Worker name, either \"account.worker\" or the bare worker suffix.")),
	), r.dispatch("get_worker_details", r.handleWorkerDetails))

	s.AddTool(mcp.NewTool("get_worker_hashrate",
		mcp.WithDescription("Daily hash rate timeseries, optionally for a single worker."),
		mcp.WithString("worker",
			mcp.Description("Worker name to filter by; omit for the whole account.")),
		mcp.WithString("group_by",
			mcp.Description("Grouping of the timeseries: \"worker\" or \"account\".")),
	), r.dispatch("get_worker_hashrate", r.handleWorkerHashrate))

	s.AddTool(mcp.NewTool("get_user_rewards",
		mcp.WithDescription("Daily mining reward history."),
		mcp.WithNumber("limit",
			mcp.Description("Number of days to return, newest first (1-365).")),
	), r.dispatch("get_user_rewards", r.handleUserRewards))

	s.AddTool(mcp.NewTool("get_pool_stats",
		mcp.WithDescription("Pool-wide hash rate, active workers, luck and round statistics."),
	), r.dispatch("get_pool_stats", r.handlePoolStats))

	s.AddTool(mcp.NewTool("get_network_stats",
		mcp.WithDescription("Bitcoin network difficulty, hash rate and block height."),
	), r.dispatch("get_network_stats", r.handleNetworkStats))
}

type toolHandler func(ctx context.Context, args map[string]interface{}) (string, error)

// dispatch wraps a handler with request-id logging, metrics and error
// translation into a structured MCP error payload.
func (r *Registry) dispatch(name string, handler toolHandler) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		log := r.logger.WithFields(logrus.Fields{
			"tool":       name,
			"request_id": uuid.NewString(),
		})

		text, err := handler(ctx, req.Params.Arguments)

		elapsed := time.Since(start)
		metrics.ToolDuration.WithLabelValues(name).Observe(float64(elapsed.Milliseconds()))

		if err != nil {
			metrics.ToolCalls.WithLabelValues(name, "error").Inc()
			log.WithError(err).WithField("duration_ms", elapsed.Milliseconds()).Warn("tool call failed")
			return mcp.NewToolResultError(errorPayload(err)), nil
		}

		metrics.ToolCalls.WithLabelValues(name, "ok").Inc()
		log.WithField("duration_ms", elapsed.Milliseconds()).Debug("tool call completed")
		return mcp.NewToolResultText(text), nil
	}
}

func (r *Registry) handleUserOverview(ctx context.Context, _ map[string]interface{}) (string, error) {
	overview, err := r.svc.UserOverview(ctx)
	if err != nil {
		return "", err
	}
	return formatUserOverview(overview), nil
}

func (r *Registry) handleListWorkers(ctx context.Context, _ map[string]interface{}) (string, error) {
	workers, err := r.svc.Workers(ctx)
	if err != nil {
		return "", err
	}
	return formatWorkersList(workers), nil
}

type workerDetailsInput struct {
	Worker string `mapstructure:"worker" validate:"required,max=128"`
}

func (r *Registry) handleWorkerDetails(ctx context.Context, args map[string]interface{}) (string, error) {
	var in workerDetailsInput
	if err := r.decode(args, &in); err != nil {
		return "", err
	}
	details, err := r.svc.WorkerDetails(ctx, in.Worker)
	if err != nil {
		return "", err
	}
	return formatWorkerDetails(details), nil
}

type workerHashrateInput struct {
	Worker  string `mapstructure:"worker" validate:"omitempty,max=128"`
	GroupBy string `mapstructure:"group_by" validate:"omitempty,oneof=worker account"`
}

func (r *Registry) handleWorkerHashrate(ctx context.Context, args map[string]interface{}) (string, error) {
	var in workerHashrateInput
	if err := r.decode(args, &in); err != nil {
		return "", err
	}

	params := map[string]string{}
	if in.GroupBy != "" {
		params["group_by"] = in.GroupBy
	}

	hashrate, err := r.svc.WorkerHashrate(ctx, in.Worker, params)
	if err != nil {
		return "", err
	}
	return formatWorkerHashrate(hashrate), nil
}

type userRewardsInput struct {
	Limit int `mapstructure:"limit" validate:"omitempty,min=1,max=365"`
}

func (r *Registry) handleUserRewards(ctx context.Context, args map[string]interface{}) (string, error) {
	var in userRewardsInput
	if err := r.decode(args, &in); err != nil {
		return "", err
	}

	params := map[string]string{}
	if in.Limit > 0 {
		params["limit"] = strconv.Itoa(in.Limit)
	}

	rewards, err := r.svc.UserRewards(ctx, params)
	if err != nil {
		return "", err
	}
	return formatUserRewards(rewards), nil
}

func (r *Registry) handlePoolStats(ctx context.Context, _ map[string]interface{}) (string, error) {
	stats, err := r.svc.PoolStats(ctx)
	if err != nil {
		return "", err
	}
	return formatPoolStats(stats), nil
}

func (r *Registry) handleNetworkStats(ctx context.Context, _ map[string]interface{}) (string, error) {
	stats, err := r.svc.NetworkStats(ctx)
	if err != nil {
		return "", err
	}
	return formatNetworkStats(stats), nil
}

// decode maps raw tool arguments onto a typed input struct and validates it.
func (r *Registry) decode(args map[string]interface{}, dest interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dest,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return invalidInput(err)
	}
	if err := dec.Decode(args); err != nil {
		return invalidInput(err)
	}
	if err := r.validate.Struct(dest); err != nil {
		return invalidInput(err)
	}
	return nil
}

func invalidInput(err error) error {
	return &braiins.Error{Kind: braiins.ErrKindValidation, Status: http.StatusBadRequest, Err: err}
}

// errorPayload renders a typed upstream error as a structured JSON payload for
// the MCP error result.
func errorPayload(err error) string {
	payload := map[string]interface{}{
		"message": err.Error(),
	}
	if apiErr, ok := braiins.AsError(err); ok {
		payload["kind"] = string(apiErr.Kind)
		payload["status"] = apiErr.Status
		if apiErr.URL != "" {
			payload["url"] = apiErr.URL
		}
		if apiErr.Body != "" {
			payload["upstream_body"] = apiErr.Body
		}
	}
	data, merr := json.Marshal(payload)
	if merr != nil {
		return err.Error()
	}
	return string(data)
}
