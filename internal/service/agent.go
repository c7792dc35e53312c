package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	cfotel "github.com/Strob0t/StatForge/internal/adapter/otel"
	"github.com/Strob0t/StatForge/internal/config"
	"github.com/Strob0t/StatForge/internal/domain/agent"
	"github.com/Strob0t/StatForge/internal/domain/conversation"
	"github.com/Strob0t/StatForge/internal/domain/tool"
	"github.com/Strob0t/StatForge/internal/logger"
	"github.com/Strob0t/StatForge/internal/port/broadcast"
	"github.com/Strob0t/StatForge/internal/port/llm"
	"github.com/Strob0t/StatForge/internal/port/messagequeue"
)

// Event types broadcast to WebSocket clients.
const (
	EventAgentStep = "agent.step"
	EventAgentDone = "agent.done"
)

// Reasoning trace entries.
const (
	traceFinalAnswer   = "Generated final answer"
	traceMaxIterations = "Reached max iterations, using fallback answer"
)

const (
	defaultMaxIterations = 4
	previewLen           = 500
)

// RunOptions tunes a single question.
type RunOptions struct {
	Verbose       bool // record per-iteration steps in the response
	MaxIterations int  // 0 = configured default; clamped to the configured cap
}

// AgentService runs the bounded tool-using reasoning loop.
// One Run owns its conversation and trace; runs may execute concurrently.
type AgentService struct {
	llm   llm.Client
	tools *ToolRegistry
	cfg   config.Agent

	metrics *cfotel.Metrics
	hub     broadcast.Broadcaster
	queue   messagequeue.Queue
	now     func() time.Time
}

// NewAgentService creates an AgentService.
func NewAgentService(client llm.Client, tools *ToolRegistry, cfg config.Agent) *AgentService {
	return &AgentService{llm: client, tools: tools, cfg: cfg, now: time.Now}
}

// SetMetrics attaches OpenTelemetry instruments.
func (s *AgentService) SetMetrics(m *cfotel.Metrics) { s.metrics = m }

// SetBroadcaster attaches a live step stream.
func (s *AgentService) SetBroadcaster(hub broadcast.Broadcaster) { s.hub = hub }

// SetQueue attaches the queue that receives run events.
func (s *AgentService) SetQueue(q messagequeue.Queue) { s.queue = q }

// Tools returns the registry the agent dispatches to.
func (s *AgentService) Tools() *ToolRegistry { return s.tools }

// Model returns the model name used for runs.
func (s *AgentService) Model() string { return s.llm.Model() }

// IsAvailable reports whether the model backend is reachable and serves the configured model.
func (s *AgentService) IsAvailable(ctx context.Context) bool {
	if !s.llm.IsAvailable(ctx) {
		return false
	}
	ok, err := s.llm.ModelExists(ctx)
	if err != nil {
		slog.Debug("model lookup failed", "model", s.llm.Model(), "error", err)
		return false
	}
	return ok
}

// ceiling resolves the iteration budget for one question.
func (s *AgentService) ceiling(override int) int {
	n := s.cfg.MaxIterations
	if n <= 0 {
		n = defaultMaxIterations
	}
	if override > 0 {
		n = override
	}
	hi := s.cfg.MaxIterationsCap
	if hi < n && hi > 0 {
		n = hi
	}
	return n
}

// Run answers one question. It always returns a response with a non-empty answer.
func (s *AgentService) Run(ctx context.Context, question string, opts RunOptions) *agent.Response {
	start := s.now()
	maxIter := s.ceiling(opts.MaxIterations)

	resp := &agent.Response{
		RunID:          uuid.NewString(),
		Question:       question,
		ToolCalls:      []tool.CallRecord{},
		ReasoningTrace: []string{},
		Season:         agent.CurrentSeason(start),
		Model:          s.llm.Model(),
	}

	ctx, span := cfotel.StartRunSpan(ctx, resp.RunID, resp.Model, maxIter)
	defer span.End()

	ctx = logger.WithRunID(ctx, resp.RunID)
	log := logger.FromContext(ctx, slog.Default())
	s.metrics.RunStarted(ctx)

	prompt, err := BuildSystemPrompt(s.tools, start)
	if err != nil {
		resp.Answer = "Error building prompt: " + err.Error()
		resp.Outcome = agent.OutcomeError
		return s.finish(ctx, log, resp, start)
	}
	conv := conversation.New(prompt, question)

	for i := 1; i <= maxIter; i++ {
		if err := ctx.Err(); err != nil {
			s.cancelled(resp, i-1, err)
			return s.finish(ctx, log, resp, start)
		}

		iterStart := s.now()
		mctx, mspan := cfotel.StartModelSpan(ctx, i, conv.Len())
		text, err := s.llm.Chat(mctx, conv.Messages(), llm.ChatOptions{Temperature: s.cfg.Temperature})
		if err != nil {
			mspan.RecordError(err)
			mspan.SetStatus(codes.Error, err.Error())
		}
		mspan.End()
		s.metrics.ModelCalled(ctx, resp.Model, s.now().Sub(iterStart).Seconds(), err != nil)

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				s.cancelled(resp, i, ctxErr)
			} else {
				log.Warn("model call failed", "iteration", i, "error", err)
				resp.Answer = "Error communicating with LLM: " + err.Error()
				resp.IterationsUsed = i
				resp.Outcome = agent.OutcomeError
			}
			return s.finish(ctx, log, resp, start)
		}

		call, ok := ParseToolCall(text)
		if !ok {
			resp.ReasoningTrace = append(resp.ReasoningTrace, traceFinalAnswer)
			resp.Answer = text
			if strings.TrimSpace(text) == "" {
				resp.Answer = BuildFallbackAnswer(resp.ToolCalls)
			}
			resp.IterationsUsed = i
			resp.Outcome = agent.OutcomeAnswered
			if opts.Verbose {
				resp.Steps = append(resp.Steps, agent.Step{
					Iteration:     i,
					ModelResponse: text,
					Duration:      s.now().Sub(iterStart).Seconds(),
				})
			}
			return s.finish(ctx, log, resp, start)
		}

		result := s.dispatch(ctx, *call, i)
		resp.ToolCalls = append(resp.ToolCalls, tool.NewCallRecord(*call, result))
		status := "success"
		if !result.Success {
			status = "failed"
		}
		resp.ReasoningTrace = append(resp.ReasoningTrace, fmt.Sprintf("Used %s: %s", call.Name, status))
		log.Debug("tool dispatched", "iteration", i, "tool", call.Name, "success", result.Success)

		rendered := result.Render(s.maxRows())
		observation := buildObservation(result, rendered)
		conv.Append(conversation.RoleAssistant, text)
		conv.Append(conversation.RoleUser, observation)

		if opts.Verbose {
			resp.Steps = append(resp.Steps, agent.Step{
				Iteration:     i,
				ModelResponse: text,
				ToolCall:      call,
				Observation:   observation,
				Duration:      s.now().Sub(iterStart).Seconds(),
			})
		}
		s.emitStep(ctx, resp.RunID, i, call.Name, result.Success, rendered, opts.Verbose)
	}

	log.Warn("max iterations reached", "max_iterations", maxIter)
	resp.ReasoningTrace = append(resp.ReasoningTrace, traceMaxIterations)
	resp.Answer = BuildFallbackAnswer(resp.ToolCalls)
	resp.IterationsUsed = maxIter
	resp.Outcome = agent.OutcomeFallback
	return s.finish(ctx, log, resp, start)
}

func (s *AgentService) dispatch(ctx context.Context, call tool.Call, iteration int) tool.Result {
	tctx, span := cfotel.StartToolCallSpan(ctx, call.Name, iteration)
	defer span.End()

	result := s.tools.Dispatch(tctx, call)
	span.SetAttributes(attribute.Bool("tool.success", result.Success))
	if !result.Success {
		span.SetStatus(codes.Error, result.Error)
	}
	s.metrics.ToolCalled(ctx, call.Name, result.Success)
	return result
}

func (s *AgentService) cancelled(resp *agent.Response, iterations int, err error) {
	resp.IterationsUsed = iterations
	resp.Outcome = agent.OutcomeCancelled
	resp.Answer = "Request cancelled before an answer was produced: " + err.Error()
	if errors.Is(err, context.DeadlineExceeded) {
		resp.Answer = "Request timed out before an answer was produced."
	}
}

func (s *AgentService) maxRows() int {
	if s.cfg.ResultMaxRows > 0 {
		return s.cfg.ResultMaxRows
	}
	return tool.DefaultMaxRows
}

func (s *AgentService) finish(ctx context.Context, log *slog.Logger, resp *agent.Response, start time.Time) *agent.Response {
	resp.TotalTime = s.now().Sub(start).Seconds()
	log.Info("agent run finished",
		"outcome", resp.Outcome,
		"iterations", resp.IterationsUsed,
		"tool_calls", len(resp.ToolCalls),
		"fallback", resp.Outcome == agent.OutcomeFallback,
		"duration", resp.TotalTime,
	)
	s.metrics.RunFinished(ctx, string(resp.Outcome), resp.IterationsUsed, resp.TotalTime)

	// Event delivery must not depend on the caller still being connected.
	evCtx := context.WithoutCancel(ctx)
	if s.hub != nil {
		s.hub.Broadcast(evCtx, broadcast.Event{Type: EventAgentDone, RunID: resp.RunID, Payload: map[string]any{
			"outcome":         resp.Outcome,
			"iterations_used": resp.IterationsUsed,
			"total_time":      resp.TotalTime,
		}})
	}
	if s.queue != nil {
		s.publish(evCtx, messagequeue.SubjectRunCompleted, runCompletedPayload(evCtx, resp))
	}
	return resp
}

func (s *AgentService) emitStep(ctx context.Context, runID string, iteration int, toolName string, success bool, rendered string, verbose bool) {
	p := messagequeue.RunStepPayload{
		RunID:     runID,
		Iteration: iteration,
		Tool:      toolName,
		Success:   success,
		Preview:   truncate(rendered, previewLen),
	}
	if s.hub != nil {
		s.hub.Broadcast(ctx, broadcast.Event{Type: EventAgentStep, RunID: runID, Payload: p})
	}
	if s.queue != nil && verbose {
		s.publish(ctx, messagequeue.SubjectRunStep, p)
	}
}

func (s *AgentService) publish(ctx context.Context, subject string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal run event", "subject", subject, "error", err)
		return
	}
	if err := s.queue.Publish(ctx, subject, data); err != nil {
		slog.Warn("publish run event", "subject", subject, "error", err)
	}
}

func runCompletedPayload(ctx context.Context, resp *agent.Response) messagequeue.RunCompletedPayload {
	p := messagequeue.RunCompletedPayload{
		RunID:          resp.RunID,
		RequestID:      logger.RequestID(ctx),
		Question:       resp.Question,
		Answer:         resp.Answer,
		Outcome:        string(resp.Outcome),
		Tools:          make([]string, 0, len(resp.ToolCalls)),
		IterationsUsed: resp.IterationsUsed,
		TotalTime:      resp.TotalTime,
		Model:          resp.Model,
	}
	for _, c := range resp.ToolCalls {
		p.Tools = append(p.Tools, c.Tool)
		if !c.Success {
			p.FailedTools++
		}
	}
	return p
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
