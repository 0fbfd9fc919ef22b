package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/eventbus/internal/config"
	"github.com/dshills/eventbus/internal/plugin/lua"
	"github.com/dshills/eventbus/pkg/event"
)

// NewRunCmd creates the "run" subcommand.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <script.lua>",
		Short: "Execute a Lua script against a fresh keyed bus",
		Args:  cobra.ExactArgs(1),
		RunE:  runRun,
	}

	cmd.Flags().Duration("timeout", 0, "Script timeout (default from config)")
	cmd.Flags().Bool("watch", false, "Re-run the script whenever it changes")
	cmd.Flags().Bool("stats", false, "Print bus counters after each run")
	return cmd
}

type runOptions struct {
	script string
	cfg    config.Config
	stats  bool
	out    io.Writer
	logger *slog.Logger
}

func runRun(cmd *cobra.Command, args []string) error {
	opts := runOptions{script: args[0], out: cmd.OutOrStdout()}

	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("timeout") {
		d, _ := cmd.Flags().GetDuration("timeout")
		if d < 0 {
			return exitError(exitUsage, nil, "--timeout must not be negative")
		}
		cfg.Script.Timeout = config.Duration(d)
	}
	opts.cfg = cfg
	opts.stats, _ = cmd.Flags().GetBool("stats")

	opts.logger, err = cfg.Log.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return exitError(exitUsage, err, "building logger")
	}

	if _, err := os.Stat(opts.script); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return exitError(exitFileNotFound, nil, "script not found: %s", opts.script)
		}
		return exitError(exitUsage, err, "reading %s", opts.script)
	}

	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		return runWatch(cmd.Context(), opts)
	}
	return runScript(cmd.Context(), opts)
}

func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, exitError(exitUsage, err, "loading config")
	}
	if err := config.ApplyEnv(&cfg, nil); err != nil {
		return cfg, exitError(exitUsage, err, "reading environment")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, exitError(exitUsage, err, "invalid config")
	}
	return cfg, nil
}

// runScript executes the script once against a new bus.
func runScript(ctx context.Context, opts runOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	keyed := event.NewKeyed[string](event.WithLogger(opts.logger))

	state := lua.NewState(
		lua.WithOutput(opts.out),
		lua.WithExecutionTimeout(opts.cfg.Script.Timeout.Std()),
	)
	defer state.Close()
	lua.NewModule(keyed, opts.logger).Register(state.L)

	start := time.Now()
	err := state.DoFile(ctx, opts.script)
	opts.logger.Debug("script finished",
		"script", opts.script,
		"elapsed", time.Since(start),
		"error", err,
	)
	if opts.stats {
		writeStats(opts.out, keyed.Stats())
	}
	if err != nil {
		return exitError(exitScript, err, "running %s", opts.script)
	}
	return nil
}

func writeStats(w io.Writer, s event.Stats) {
	fmt.Fprintf(w, "buses=%d contextuals=%d subscribers=%d posts=%d delivered=%d failures=%d\n",
		s.Buses, s.Contextuals, s.Subscribers, s.Posts, s.Delivered, s.Failures)
}
