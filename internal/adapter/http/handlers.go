package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/StatForge/internal/domain/agent"
	"github.com/Strob0t/StatForge/internal/domain/tool"
	"github.com/Strob0t/StatForge/internal/port/cache"
	"github.com/Strob0t/StatForge/internal/service"
)

const maxQuestionLength = 2000

// Asker answers questions through the reasoning loop.
type Asker interface {
	Run(ctx context.Context, question string, opts service.RunOptions) *agent.Response
	IsAvailable(ctx context.Context) bool
	Model() string
}

// ToolDispatcher lists and invokes registered tools.
type ToolDispatcher interface {
	Descriptors() []tool.Descriptor
	Dispatch(ctx context.Context, call tool.Call) tool.Result
}

// HealthChecker reports row counts per stats table.
type HealthChecker interface {
	HealthCheck(ctx context.Context) (map[string]int64, error)
}

// Handlers holds the collaborators behind the REST API.
type Handlers struct {
	Agent      Asker
	Tools      ToolDispatcher
	Health     HealthChecker       // nil when no database is configured
	Cache      cache.StatsReporter // nil when the query cache is disabled
	AskTimeout time.Duration       // 0 = bounded only by the client connection
	Version    string
	Now        func() time.Time

	// RateLimit wraps the endpoints that invoke the model or a tool. Optional.
	RateLimit func(http.Handler) http.Handler
}

// AskRequest is the body of POST /api/v1/ask.
type AskRequest struct {
	Question      string `json:"question"`
	Verbose       bool   `json:"verbose"`
	MaxIterations int    `json:"max_iterations,omitempty"`
}

// StatusResponse is the body of GET /api/v1/status.
type StatusResponse struct {
	Version        string   `json:"version"`
	Model          string   `json:"model"`
	ModelAvailable bool     `json:"model_available"`
	Season         int      `json:"season"`
	Tools          []string `json:"tools"`

	Cache []cache.TierStats `json:"cache,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string           `json:"status"`
	Database string           `json:"database"`
	Tables   map[string]int64 `json:"tables,omitempty"`
}

func (req AskRequest) validate() string {
	switch {
	case strings.TrimSpace(req.Question) == "":
		return "question is required"
	case len(req.Question) > maxQuestionLength:
		return fmt.Sprintf("question exceeds %d characters", maxQuestionLength)
	case req.MaxIterations < 0:
		return "max_iterations must not be negative"
	}
	return ""
}

// Ask handles POST /api/v1/ask
func (h *Handlers) Ask(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[AskRequest](w, r)
	if !ok {
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ctx := r.Context()
	if h.AskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.AskTimeout)
		defer cancel()
	}

	resp := h.Agent.Run(ctx, req.Question, service.RunOptions{
		Verbose:       req.Verbose,
		MaxIterations: req.MaxIterations,
	})
	writeJSON(w, http.StatusOK, resp)
}

// ListTools handles GET /api/v1/tools
func (h *Handlers) ListTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Tools.Descriptors())
}

// InvokeTool handles POST /api/v1/tools/{name}. The body is the argument object.
func (h *Handlers) InvokeTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !h.hasTool(name) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("tool %q not found", name))
		return
	}
	args := map[string]any{}
	if r.ContentLength != 0 {
		var ok bool
		if args, ok = readJSON[map[string]any](w, r); !ok {
			return
		}
	}

	result := h.Tools.Dispatch(r.Context(), tool.Call{Name: name, Arguments: args})
	slog.Debug("tool invoked over http", "tool", name, "success", result.Success)
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) hasTool(name string) bool {
	for _, d := range h.Tools.Descriptors() {
		if d.Name == name {
			return true
		}
	}
	return false
}

// Status handles GET /api/v1/status
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	descs := h.Tools.Descriptors()
	names := make([]string, 0, len(descs))
	for _, d := range descs {
		names = append(names, d.Name)
	}
	resp := StatusResponse{
		Version:        h.Version,
		Model:          h.Agent.Model(),
		ModelAvailable: h.Agent.IsAvailable(r.Context()),
		Season:         agent.CurrentSeason(h.now()),
		Tools:          names,
	}
	if h.Cache != nil {
		resp.Cache = h.Cache.CacheStats()
	}
	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.Health == nil {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Database: "disabled"})
		return
	}
	counts, err := h.Health.HealthCheck(r.Context())
	if err != nil {
		slog.Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Database: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Database: "ok", Tables: counts})
}

func (h *Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
