package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Strob0t/StatForge/internal/config"
	"github.com/Strob0t/StatForge/internal/logger"
)

type rootOptions struct {
	configPath string
	logLevel   string
	dsn        string
	natsURL    string
	llmURL     string
	model      string

	sess *session
}

type ctxKey struct{}

// session is the per-invocation state shared by subcommands.
type session struct {
	cfg       *config.Config
	logCloser logger.Closer
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "statforge",
		Short:         "Answer NFL statistics questions with a tool-using model",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := config.LoadWithCLI(opts.cliFlags(cmd))
			if err != nil {
				return err
			}
			// stdout carries answers and JSON for every command but serve.
			if cmd.Name() != "serve" {
				cfg.Logging.Output = "stderr"
			}
			log, closer := logger.New(cfg.Logging)
			slog.SetDefault(log)
			slog.Debug("config loaded", "path", path, "llm", cfg.LLM.Provider, "model", cfg.LLM.Model)
			opts.sess = &session{cfg: cfg, logCloser: closer}
			cmd.SetContext(context.WithValue(cmd.Context(), ctxKey{}, opts.sess))
			return nil
		},
	}
	// Flush buffered logs even when a command fails.
	cobra.OnFinalize(func() {
		if opts.sess != nil {
			opts.sess.logCloser.Close()
			opts.sess = nil
		}
	})

	f := cmd.PersistentFlags()
	f.StringVar(&opts.configPath, "config", "", "path to statforge.yaml (default: $STATFORGE_CONFIG or ./statforge.yaml)")
	f.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	f.StringVar(&opts.dsn, "dsn", "", "PostgreSQL DSN of the stats database")
	f.StringVar(&opts.natsURL, "nats-url", "", "NATS server URL")
	f.StringVar(&opts.llmURL, "llm-url", "", "model backend URL")
	f.StringVar(&opts.model, "model", "", "model name")

	cmd.AddCommand(
		newServeCmd(),
		newAskCmd(),
		newChatCmd(),
		newToolsCmd(),
		newMigrateCmd(),
		newWatchCmd(),
	)
	return cmd
}

// cliFlags maps explicitly set flags onto config overrides.
func (o *rootOptions) cliFlags(cmd *cobra.Command) config.CLIFlags {
	var flags config.CLIFlags
	set := func(name string, v *string) *string {
		if cmd.Flags().Changed(name) {
			return v
		}
		return nil
	}
	path := o.configPath
	if path == "" {
		path = os.Getenv(config.ConfigFileEnv)
	}
	if path != "" {
		flags.ConfigPath = &path
	}
	flags.LogLevel = set("log-level", &o.logLevel)
	flags.DSN = set("dsn", &o.dsn)
	flags.NatsURL = set("nats-url", &o.natsURL)
	flags.LLMURL = set("llm-url", &o.llmURL)
	flags.Model = set("model", &o.model)
	return flags
}

func sessionFrom(cmd *cobra.Command) *session {
	s, _ := cmd.Context().Value(ctxKey{}).(*session)
	return s
}
