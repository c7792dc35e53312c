package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	cfnats "github.com/Strob0t/StatForge/internal/adapter/nats"
	"github.com/Strob0t/StatForge/internal/port/messagequeue"
)

func newWatchCmd() *cobra.Command {
	var steps bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow agent runs published on NATS",
		Long:  "Prints one line per finished run, and per loop iteration with --steps. Requires nats.enabled.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := sessionFrom(cmd).cfg
			if !cfg.NATS.Enabled {
				return errors.New("watch requires nats.enabled (or STATFORGE_NATS_ENABLED=true)")
			}
			ctx := cmd.Context()
			q, err := cfnats.Connect(ctx, cfg.NATS.URL)
			if err != nil {
				return err
			}
			defer func() { _ = q.Drain() }()
			return watchRuns(ctx, q, cmd.OutOrStdout(), steps)
		},
	}
	cmd.Flags().BoolVar(&steps, "steps", false, "also print per-iteration steps of verbose runs")
	return cmd
}

// watchRuns prints run events until ctx is done.
func watchRuns(ctx context.Context, q messagequeue.Queue, out io.Writer, steps bool) error {
	var mu sync.Mutex
	emit := func(line string) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(out, line)
	}

	stop, err := q.Subscribe(ctx, messagequeue.SubjectRunCompleted, func(_ context.Context, _ string, data []byte) error {
		var p messagequeue.RunCompletedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		emit(formatRunCompleted(p))
		return nil
	})
	if err != nil {
		return err
	}
	defer stop()

	if steps {
		stopSteps, err := q.Subscribe(ctx, messagequeue.SubjectRunStep, func(_ context.Context, _ string, data []byte) error {
			var p messagequeue.RunStepPayload
			if err := json.Unmarshal(data, &p); err != nil {
				return err
			}
			emit(formatRunStep(p))
			return nil
		})
		if err != nil {
			return err
		}
		defer stopSteps()
	}

	<-ctx.Done()
	return nil
}

func formatRunCompleted(p messagequeue.RunCompletedPayload) string {
	tools := "-"
	if len(p.Tools) > 0 {
		tools = strings.Join(p.Tools, ",")
	}
	return fmt.Sprintf("%s %-9s %d it %5.1fs tools=%s failed=%d %q",
		p.RunID, p.Outcome, p.IterationsUsed, p.TotalTime, tools, p.FailedTools, p.Question)
}

func formatRunStep(p messagequeue.RunStepPayload) string {
	if p.Tool == "" {
		return fmt.Sprintf("%s   step %d answer", p.RunID, p.Iteration)
	}
	status := "ok"
	if !p.Success {
		status = "failed"
	}
	return fmt.Sprintf("%s   step %d %s %s", p.RunID, p.Iteration, p.Tool, status)
}
