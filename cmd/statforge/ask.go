package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Strob0t/StatForge/internal/domain/agent"
	"github.com/Strob0t/StatForge/internal/service"
)

type askOptions struct {
	verbose       bool
	asJSON        bool
	maxIterations int
}

func (o *askOptions) runOptions() service.RunOptions {
	return service.RunOptions{Verbose: o.verbose || o.asJSON, MaxIterations: o.maxIterations}
}

func newAskCmd() *cobra.Command {
	opts := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a single question and exit",
		Example: `  statforge ask "Who led the league in rushing yards last season?"
  statforge ask --verbose --max-iterations 6 "Compare Mahomes and Allen passing TDs"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				return errors.New("question must not be empty")
			}
			if opts.maxIterations < 0 {
				return errors.New("--max-iterations must not be negative")
			}

			a, err := buildApp(cmd.Context(), sessionFrom(cmd).cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			resp := a.agent.Run(cmd.Context(), question, opts.runOptions())
			out := cmd.OutOrStdout()
			if opts.asJSON {
				if err := printJSON(out, resp); err != nil {
					return err
				}
			} else {
				printResponse(out, resp, opts.verbose)
			}
			if resp.Outcome == agent.OutcomeError {
				return errors.New("model backend failed, see answer above")
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "print the reasoning trace and tool calls")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the full response as JSON")
	cmd.Flags().IntVar(&opts.maxIterations, "max-iterations", 0, "iteration ceiling for this question (0 = configured default)")
	return cmd
}
