// Package cli implements the chatcli commands: an interactive terminal
// for driving the conversational agent during manual testing, wired
// against the mock LLM provider and in-memory repositories by default.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/loomtale/engine/internal/bootstrap"
	"github.com/loomtale/engine/internal/config"
	"github.com/loomtale/engine/pkg/logger"
)

var (
	ac        *bootstrap.AgentContext
	scheduler *cron.Cron
)

// RootCmd is the top-level chatcli command.
var RootCmd = &cobra.Command{
	Use:   "chatcli",
	Short: "Interactive console for the conversational fiction-writing agent",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd.Context())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if scheduler != nil {
			scheduler.Stop()
		}
	},
}

// setup loads .env (if present), builds the shared AgentContext pinned
// to the mock provider so the CLI never needs live credentials, and
// starts the retention-sweep scheduler.
func setup(ctx context.Context) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		cfg = &config.Config{}
	}
	cfg.LLM.DefaultProvider = "mock"
	cfg.Embedding.Provider = ""
	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

	ac, err = bootstrap.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to build agent context: %w", err)
	}

	scheduler = cron.New()
	if _, err := scheduler.AddFunc("@every 5m", func() {
		sweepCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := ac.SweepRetention(sweepCtx); err != nil {
			logger.FromContext(sweepCtx).Warn("retention sweep failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule retention sweep: %w", err)
	}
	scheduler.Start()

	return nil
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
