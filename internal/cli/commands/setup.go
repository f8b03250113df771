package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/NiHoel/cirspecte-site/internal/cli/config"
	"github.com/NiHoel/cirspecte-site/internal/cli/output"
	"github.com/NiHoel/cirspecte-site/internal/engine"
	"github.com/NiHoel/cirspecte-site/internal/loader"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	eng, err := createEngine(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	cleanup := func() {
		_ = eng.Close()
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Engine:   eng,
		Renderer: r,
	}, cleanup, nil
}

// getConfig returns the current configuration, or the defaults when no
// configuration was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

func createEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	eng, err := engine.New(engine.Config{
		StatePath: cfg.StatePath,
		ReadOnly:  cfg.ReadOnly,
		Viewer:    cfg.Viewer(),
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	return eng, nil
}

// loadTour loads path and reports skipped entities on the error output.
func loadTour(ctx context.Context, cmdCtx *CommandContext, path string) (loader.Result, error) {
	res, err := cmdCtx.Engine.LoadTour(ctx, path)
	if err != nil {
		return res, err
	}
	if res.Failed > 0 {
		cmdCtx.Renderer.Warning(fmt.Sprintf("%d entities skipped (run with -v for details)", res.Failed))
	}
	return res, nil
}

func summarize(res loader.Result) output.LoadSummary {
	docs := res.Documents
	if docs == nil {
		docs = []string{}
	}
	return output.LoadSummary{
		Succeeded: res.Succeeded,
		Created:   res.Created,
		Failed:    res.Failed,
		Documents: docs,
	}
}
