package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Strob0t/StatForge/internal/domain/agent"
	"github.com/Strob0t/StatForge/internal/domain/tool"
)

// printResponse writes the answer and, when verbose, the reasoning trace
// and every tool call.
func printResponse(w io.Writer, resp *agent.Response, verbose bool) {
	fmt.Fprintln(w, resp.Answer)
	if !verbose {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Season %d, %d iteration(s), %.1fs, outcome %s\n",
		resp.Season, resp.IterationsUsed, resp.TotalTime, resp.Outcome)
	if len(resp.ReasoningTrace) > 0 {
		fmt.Fprintln(w, "Trace:")
		for i, line := range resp.ReasoningTrace {
			fmt.Fprintf(w, "  %d. %s\n", i+1, line)
		}
	}
	for i, tc := range resp.ToolCalls {
		status := "ok"
		if !tc.Success {
			status = "failed: " + tc.Error
		}
		fmt.Fprintf(w, "Tool call %d: %s %s (%s)\n", i+1, tc.Tool, compactJSON(tc.Arguments), status)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTools lists tool names, required parameters and descriptions.
func printTools(w io.Writer, descs []tool.Descriptor) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPARAMETERS\tDESCRIPTION")
	for _, d := range descs {
		params := make([]string, 0, len(d.Params))
		for _, p := range d.Params {
			name := p.Name
			if !p.Required {
				name = "[" + name + "]"
			}
			params = append(params, name)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Name, strings.Join(params, " "), firstSentence(d.Description))
	}
	return tw.Flush()
}

func compactJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func firstSentence(s string) string {
	if i := strings.Index(s, ". "); i >= 0 {
		return s[:i+1]
	}
	return s
}
