package messagequeue

// RunCompletedPayload is the schema for agent.runs.completed messages.
type RunCompletedPayload struct {
	RunID          string   `json:"run_id"`
	RequestID      string   `json:"request_id,omitempty"`
	Question       string   `json:"question"`
	Answer         string   `json:"answer"`
	Outcome        string   `json:"outcome"`
	Tools          []string `json:"tools"`
	FailedTools    int      `json:"failed_tools"`
	IterationsUsed int      `json:"iterations_used"`
	TotalTime      float64  `json:"total_time"`
	Model          string   `json:"model"`
}

// RunStepPayload is the schema for agent.runs.step messages.
type RunStepPayload struct {
	RunID     string `json:"run_id"`
	Iteration int    `json:"iteration"`
	Tool      string `json:"tool,omitempty"`
	Success   bool   `json:"success"`
	Preview   string `json:"preview,omitempty"`
}

// SearchRequestPayload is the request schema for retrieval.search.* subjects.
type SearchRequestPayload struct {
	Query   string            `json:"query"`
	Limit   int               `json:"limit"`
	Filters map[string]string `json:"filters,omitempty"`
}

// SearchHit is one document in a SearchResponsePayload.
type SearchHit struct {
	Text     string         `json:"text"`
	Title    string         `json:"title,omitempty"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SearchResponsePayload is the reply schema for retrieval.search.* subjects.
type SearchResponsePayload struct {
	Results []SearchHit `json:"results"`
	Error   string      `json:"error,omitempty"`
}
