package commands

import (
	"log/slog"

	"github.com/leapstack-labs/leapview/internal/cli/config"
	"github.com/leapstack-labs/leapview/internal/markdown"
	"github.com/leapstack-labs/leapview/internal/views"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	Views  *views.Set
}

// NewCommandContext loads the views set described by the command's config.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg := config.GetConfig(cmd.Context())
	logger := config.GetLogger(cmd.Context())

	if err := cfg.ValidateDirectories(); err != nil {
		return nil, err
	}

	set, err := views.Open(viewsOptions(cfg, logger))
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Cfg:    cfg,
		Logger: logger,
		Views:  set,
	}, nil
}

func viewsOptions(cfg *config.Config, logger *slog.Logger) views.Options {
	return views.Options{
		Dir:        cfg.ViewsDir,
		HelpersDir: cfg.HelpersDir,
		Autoescape: cfg.Autoescape,
		Markdown: markdown.Options{
			Unsafe:    cfg.Markdown.Unsafe,
			HardWraps: cfg.Markdown.HardWraps,
		},
		Logger: logger,
	}
}
