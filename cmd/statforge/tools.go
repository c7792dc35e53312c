package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Strob0t/StatForge/internal/domain/tool"
)

func newToolsCmd() *cobra.Command {
	var health bool
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the agent's tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(cmd.Context(), sessionFrom(cmd).cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if err := printTools(out, a.tools.Descriptors()); err != nil {
				return err
			}
			if !health {
				return nil
			}
			counts, err := a.store.HealthCheck(cmd.Context())
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			fmt.Fprintln(out)
			printRowCounts(out, counts)
			return nil
		},
	}
	cmd.Flags().BoolVar(&health, "health", false, "also report row counts of the stats tables")
	cmd.AddCommand(newToolCallCmd())
	return cmd
}

func newToolCallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "call <name> [json-arguments]",
		Short: "Invoke one tool directly",
		Example: `  statforge tools call calculator '{"operation": "average", "values": [300, 312.5]}'
  statforge tools call rankings '{"stat": "passing_yards", "limit": 5}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw string
			if len(args) == 2 {
				raw = args[1]
			}
			toolArgs, err := parseToolArgs(raw)
			if err != nil {
				return err
			}

			a, err := buildApp(cmd.Context(), sessionFrom(cmd).cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, ok := a.tools.Get(args[0]); !ok {
				return fmt.Errorf("unknown tool: %s", args[0])
			}
			res := a.tools.Dispatch(cmd.Context(), tool.Call{Name: args[0], Arguments: toolArgs})
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Success {
				return errors.New(res.Error)
			}
			return nil
		},
	}
}

// parseToolArgs decodes a JSON object, keeping numbers exact.
func parseToolArgs(raw string) (map[string]any, error) {
	args := map[string]any{}
	if raw == "" {
		return args, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	if err := dec.Decode(&args); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

func printRowCounts(w io.Writer, counts map[string]int64) {
	tables := make([]string, 0, len(counts))
	for t := range counts {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	for _, t := range tables {
		fmt.Fprintf(w, "%-24s %s rows\n", t, humanize.Comma(counts[t]))
	}
}
