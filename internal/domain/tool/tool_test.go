package tool

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestFailCarriesNoData(t *testing.T) {
	r := Failf("Invalid stat: %s", "tackles")
	if r.Success {
		t.Fatal("expected failure")
	}
	if r.Data != nil {
		t.Fatalf("failed result must not carry data, got %v", r.Data)
	}
	if r.Error != "Invalid stat: tackles" {
		t.Errorf("unexpected error %q", r.Error)
	}
}

func TestRender(t *testing.T) {
	rows := make([]*Record, 20)
	for i := range rows {
		rows[i] = NewRecord().Set("week", i+1)
	}

	tests := []struct {
		name    string
		result  Result
		maxRows int
		want    string
		prefix  string
		suffix  string
	}{
		{name: "failure", result: Fail("Cannot divide by zero"), want: "Error: Cannot divide by zero"},
		{name: "empty list", result: OK([]*Record{}), want: "No results found."},
		{name: "nil data", result: OK(nil), want: "No results found."},
		{name: "scalar object", result: OK(CalcResult{Result: 100, Operation: "win_percentage"}), want: "{\n  \"result\": 100,\n  \"operation\": \"win_percentage\"\n}"},
		{name: "truncated", result: OK(rows), maxRows: 15, prefix: "[\n  {\n    \"week\": 1\n  }", suffix: "\n... and 5 more rows"},
		{name: "fits", result: OK(rows[:2]), maxRows: 15, want: "[\n  {\n    \"week\": 1\n  },\n  {\n    \"week\": 2\n  }\n]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.result.Render(tt.maxRows)
			if tt.want != "" && got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
			if tt.prefix != "" && !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("Render() = %q, want prefix %q", got, tt.prefix)
			}
			if tt.suffix != "" && !strings.HasSuffix(got, tt.suffix) {
				t.Errorf("Render() = %q, want suffix %q", got, tt.suffix)
			}
		})
	}
}

func TestRenderTruncatedCountsRows(t *testing.T) {
	rows := make([]map[string]any, 16)
	for i := range rows {
		rows[i] = map[string]any{"i": i}
	}
	got := OK(rows).Render(DefaultMaxRows)
	if strings.Count(got, "\"i\"") != DefaultMaxRows {
		t.Errorf("expected %d rendered rows in %q", DefaultMaxRows, got)
	}
}

func TestHasData(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   bool
	}{
		{"failure", Fail("boom"), false},
		{"nil", OK(nil), false},
		{"empty records", OK([]*Record{}), false},
		{"records", OK([]*Record{NewRecord().Set("a", 1)}), true},
		{"empty record", OK(NewRecord()), false},
		{"player stats", OK(&PlayerStats{}), true},
		{"calc", OK(CalcResult{Result: 0}), true},
		{"empty map", OK(map[string]any{}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.HasData(); got != tt.want {
				t.Errorf("HasData() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewCallRecord(t *testing.T) {
	call := Call{Name: "calculator", Arguments: map[string]any{"operation": "divide"}}

	ok := NewCallRecord(call, OK(CalcResult{Result: 2, Operation: "divide"}))
	if !ok.Success || ok.Result == nil || ok.Error != "" {
		t.Errorf("unexpected success record: %+v", ok)
	}

	failed := NewCallRecord(call, Fail("Cannot divide by zero"))
	if failed.Success || failed.Result != nil {
		t.Errorf("failed record must not carry a result: %+v", failed)
	}
	if failed.Error != "Cannot divide by zero" {
		t.Errorf("unexpected error %q", failed.Error)
	}
}

func TestRecordKeepsColumnOrder(t *testing.T) {
	r := RecordFrom([]string{"player", "team", "total_passing_yards"}, []any{"J. Burrow", "CIN", 4918})

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"player":"J. Burrow","team":"CIN","total_passing_yards":4918}`
	if string(b) != want {
		t.Errorf("Marshal = %s, want %s", b, want)
	}

	keys := r.Keys()
	if len(keys) != 3 || keys[2] != "total_passing_yards" {
		t.Errorf("unexpected keys %v", keys)
	}
}

func TestRecordUnmarshalRoundTripOrder(t *testing.T) {
	var r Record
	if err := json.Unmarshal([]byte(`{"z":1,"a":2}`), &r); err != nil {
		t.Fatal(err)
	}
	if keys := r.Keys(); keys[0] != "z" || keys[1] != "a" {
		t.Errorf("expected source order, got %v", keys)
	}
}

func TestNilRecordIsSafe(t *testing.T) {
	var r *Record
	if r.Len() != 0 || r.Keys() != nil {
		t.Error("nil record should be empty")
	}
	if _, ok := r.Get("x"); ok {
		t.Error("nil record should have no fields")
	}
	b, _ := json.Marshal(struct {
		R *Record `json:"r"`
	}{})
	if string(b) != `{"r":null}` {
		t.Errorf("unexpected nil marshal %s", b)
	}
}
