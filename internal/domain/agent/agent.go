// Package agent defines the artifacts of one reasoning run.
package agent

import (
	"time"

	"github.com/Strob0t/StatForge/internal/domain/tool"
)

// Outcome describes how a run terminated.
type Outcome string

const (
	OutcomeAnswered  Outcome = "answered"  // model produced a plain-text answer
	OutcomeFallback  Outcome = "fallback"  // iteration ceiling reached
	OutcomeError     Outcome = "error"     // model backend failure
	OutcomeCancelled Outcome = "cancelled" // caller went away
)

// Response is the terminal artifact of one run. It is never mutated after return.
type Response struct {
	RunID          string            `json:"run_id"`
	Question       string            `json:"question"`
	Answer         string            `json:"answer"`
	ToolCalls      []tool.CallRecord `json:"tool_calls"`
	ReasoningTrace []string          `json:"reasoning_trace"`
	Steps          []Step            `json:"steps,omitempty"`
	TotalTime      float64           `json:"total_time"` // seconds
	IterationsUsed int               `json:"iterations_used"`
	Season         int               `json:"season"`
	Model          string            `json:"model,omitempty"`
	Outcome        Outcome           `json:"outcome"`
}

// Step is the verbose detail of one loop iteration.
type Step struct {
	Iteration     int        `json:"iteration"`
	ModelResponse string     `json:"model_response"`
	ToolCall      *tool.Call `json:"tool_call,omitempty"`
	Observation   string     `json:"observation,omitempty"`
	Duration      float64    `json:"duration"` // seconds
}

// CurrentSeason returns the football season in progress at now.
// Seasons run September through February, so January to August still
// belong to the previous calendar year's season.
func CurrentSeason(now time.Time) int {
	if now.Month() <= time.August {
		return now.Year() - 1
	}
	return now.Year()
}
