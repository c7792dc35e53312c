package service

import (
	"reflect"
	"testing"
)

func TestParseToolCall(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantOK   bool
		wantName string
		wantArgs map[string]any
	}{
		{
			name:     "fenced block",
			text:     "Let me look that up.\n```json\n{\"tool\": \"rankings\", \"arguments\": {\"stat\": \"passing_yards\", \"season\": 2024}}\n```",
			wantOK:   true,
			wantName: "rankings",
			wantArgs: map[string]any{"stat": "passing_yards", "season": float64(2024)},
		},
		{
			name:     "fenced block without tool key is still a call",
			text:     "```json\n{\"arguments\": {\"x\": 1}}\n```",
			wantOK:   true,
			wantName: "",
			wantArgs: map[string]any{"x": float64(1)},
		},
		{
			name:     "raw object with tool key",
			text:     `I'll use {"tool": "calculator", "arguments": {"operation": "sum", "values": [1, 2]}} now`,
			wantOK:   true,
			wantName: "calculator",
			wantArgs: map[string]any{"operation": "sum", "values": []any{float64(1), float64(2)}},
		},
		{
			name:     "broken fence and broken first object",
			text:     "```json\n{not json}\n```\n{\"tool\": \"sql_query\", \"arguments\": {\"sql\": \"SELECT 1\"}}",
			wantOK:   false,
			wantName: "",
		},
		{
			name:     "braces inside strings",
			text:     `{"tool": "sql_query", "arguments": {"sql": "SELECT '}' AS brace"}}`,
			wantOK:   true,
			wantName: "sql_query",
			wantArgs: map[string]any{"sql": "SELECT '}' AS brace"},
		},
		{
			name:     "missing arguments gives empty map",
			text:     `{"tool": "calculator"}`,
			wantOK:   true,
			wantName: "calculator",
			wantArgs: map[string]any{},
		},
		{
			name:   "unrelated json is an example, not an action",
			text:   `For example {"player": "X", "yards": 100} is a row.`,
			wantOK: false,
		},
		{
			name:   "plain text",
			text:   "Patrick Mahomes threw for 4,183 yards in 2024.",
			wantOK: false,
		},
		{
			name:   "unbalanced",
			text:   `{"tool": "rankings", "arguments": {"stat": "x"}`,
			wantOK: false,
		},
		{
			name:   "empty",
			text:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call, ok := ParseToolCall(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v (call %+v)", ok, tt.wantOK, call)
			}
			if !ok {
				if call != nil {
					t.Errorf("expected nil call, got %+v", call)
				}
				return
			}
			if call.Name != tt.wantName {
				t.Errorf("name = %q, want %q", call.Name, tt.wantName)
			}
			if !reflect.DeepEqual(call.Arguments, tt.wantArgs) {
				t.Errorf("arguments = %#v, want %#v", call.Arguments, tt.wantArgs)
			}
		})
	}
}

func TestParseToolCall_FirstObjectOnly(t *testing.T) {
	// The scan looks at the first object only; a later call is not considered.
	text := `{"note": "thinking"} then {"tool": "calculator", "arguments": {}}`
	if _, ok := ParseToolCall(text); ok {
		t.Fatal("expected no call when the first object has no tool key")
	}
}
