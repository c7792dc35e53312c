package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Strob0t/StatForge/internal/domain/agent"
	"github.com/Strob0t/StatForge/internal/service"
)

// asker is the part of the agent the chat loop needs.
type asker interface {
	Run(ctx context.Context, question string, opts service.RunOptions) *agent.Response
}

func newChatCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Ask questions interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx, sessionFrom(cmd).cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			interactive := term.IsTerminal(int(os.Stdin.Fd()))
			if interactive {
				if !a.agent.IsAvailable(ctx) {
					fmt.Fprintf(out, "warning: model %s is not available\n", a.agent.Model())
				}
				fmt.Fprintln(out, "Ask about NFL stats. /verbose toggles details, /quit exits.")
			}
			return chatLoop(ctx, cmd.InOrStdin(), out, a.agent, interactive, verbose)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print the reasoning trace and tool calls")
	return cmd
}

// chatLoop answers one question per input line until EOF, /quit or cancellation.
func chatLoop(ctx context.Context, in io.Reader, out io.Writer, a asker, prompt, verbose bool) error {
	sc := bufio.NewScanner(in)
	for {
		if prompt {
			fmt.Fprint(out, "> ")
		}
		if !sc.Scan() {
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit", "quit", "exit":
			return nil
		case "/verbose":
			verbose = !verbose
			fmt.Fprintf(out, "verbose %t\n", verbose)
			continue
		}

		resp := a.Run(ctx, line, service.RunOptions{Verbose: verbose})
		printResponse(out, resp, verbose)
		fmt.Fprintln(out)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
