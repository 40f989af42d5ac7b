package commands

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leapview/internal/site"
	"github.com/spf13/cobra"
)

// BuildOptions holds options for the build command. The output directory and
// job count are read through the config layer.
type BuildOptions struct {
	DataFile string
	Vars     map[string]string
}

// NewBuildCommand creates the build command.
func NewBuildCommand() *cobra.Command {
	opts := &BuildOptions{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render every page to static HTML",
		Long: `Render every page view into the output directory.

A view is written to the file the server would answer it on: blog/hello.md.tmpl
becomes blog/hello.html and blog/index.tmpl becomes blog/index.html. Views under a
directory starting with "_" (layouts, partials) are not written. A manifest.json
listing the pages is written last.`,
		Example: `  # Build into ./public
  leapview build

  # Build into dist with shared variables
  leapview build -o dist --data site.yaml --var env=prod`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, opts)
		},
	}

	cmd.Flags().StringP("out", "o", "", "Output directory (default: public)")
	cmd.Flags().Int("jobs", 0, "Concurrent renders (default: one per CPU)")
	cmd.Flags().StringVarP(&opts.DataFile, "data", "d", "", "YAML file with render variables")
	cmd.Flags().StringToStringVar(&opts.Vars, "var", nil, "String variable as key=value (repeatable)")

	return cmd
}

func runBuild(cmd *cobra.Command, opts *BuildOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	vars, err := loadData(opts.DataFile)
	if err != nil {
		return err
	}
	for k, v := range opts.Vars {
		vars[k] = v
	}

	manifest, err := site.New(site.Config{
		Views:     cc.Views,
		OutputDir: cc.Cfg.Build.OutputDir,
		Vars:      vars,
		Jobs:      cc.Cfg.Build.Jobs,
		Logger:    cc.Logger,
	}).Build(cmd.Context())
	if err != nil {
		return err
	}

	renderPageTable(cmd.OutOrStdout(), manifest)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Built %d pages -> %s", manifest.Stats.PageCount, cc.Cfg.Build.OutputDir)
	if manifest.Stats.SkippedCount > 0 {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), " (%d shadowed)", manifest.Stats.SkippedCount)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout())
	return nil
}

func renderPageTable(w io.Writer, manifest *site.Manifest) {
	if len(manifest.Pages) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Path", "View", "Title"})
	for _, p := range manifest.Pages {
		t.AppendRow(table.Row{p.Path, p.View, p.Title})
	}
	t.Render()
}
