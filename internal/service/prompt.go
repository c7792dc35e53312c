package service

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
	"time"

	"github.com/Strob0t/StatForge/internal/domain/agent"
	"github.com/Strob0t/StatForge/internal/domain/tool"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var agentTemplates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// systemPromptData carries the per-run values injected into the system prompt.
type systemPromptData struct {
	CurrentYear int
	Season      int
	Tools       string
}

// BuildSystemPrompt renders the agent system prompt for a run starting at now.
func BuildSystemPrompt(tools *ToolRegistry, now time.Time) (string, error) {
	var buf bytes.Buffer
	err := agentTemplates.ExecuteTemplate(&buf, "agent_system.tmpl", systemPromptData{
		CurrentYear: now.Year(),
		Season:      agent.CurrentSeason(now),
		Tools:       tools.DescribeAll(),
	})
	if err != nil {
		return "", fmt.Errorf("render system prompt: %w", err)
	}
	return buf.String(), nil
}

// Observation suffixes appended after a rendered tool result.
const (
	observationAnswerNow = "You now have data to answer the question. " +
		"Provide your final answer as a clear sentence using the numbers above. " +
		"DO NOT call another tool - just answer the question."
	observationTryAgain = "The tool didn't return useful data. Try a different approach or tool."
)

// buildObservation wraps a rendered result in the follow-up user message.
// Results with data tell the model to stop; failures and empty results invite another attempt.
func buildObservation(r tool.Result, rendered string) string {
	hint := observationTryAgain
	if r.HasData() {
		hint = observationAnswerNow
	}
	return "Tool result:\n" + rendered + "\n\n" + hint
}
