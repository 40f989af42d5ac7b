package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leapview/internal/views"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// RenderOptions holds options for the render command.
type RenderOptions struct {
	DataFile string
	Vars     map[string]string
	Page     int
	Output   string
}

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	opts := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render <view>",
		Short: "Render a view to stdout",
		Long: `Resolve a view path the way the server does and print the rendered HTML.

Variables come from the view's frontmatter data, then --data, then --var.
page_no is always set (see --page).`,
		Example: `  # Render the home page
  leapview render /

  # Render page 3 of the blog index with extra data
  leapview render /blog/ --page 3 --data posts.yaml

  # Write to a file
  leapview render /about.html -o public/about.html --var env=prod`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.DataFile, "data", "d", "", "YAML file with render variables")
	cmd.Flags().StringToStringVar(&opts.Vars, "var", nil, "String variable as key=value (repeatable)")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "Page number bound to page_no")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Write output to file instead of stdout")

	return cmd
}

func runRender(cmd *cobra.Command, target string, opts *RenderOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	v, err := cc.Views.Resolve(target)
	if err != nil {
		return err
	}
	if v == nil {
		return fmt.Errorf("view %q not found in %s", target, cc.Views.Dir())
	}

	vars, err := loadData(opts.DataFile)
	if err != nil {
		return err
	}
	for k, val := range opts.Vars {
		vars[k] = val
	}
	vars[views.PageNoVar] = opts.Page

	cc.Logger.Debug("rendering view", "view", v.Name, "vars", len(vars))
	out, err := v.Render(vars)
	if err != nil {
		return err
	}

	if opts.Output == "" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(opts.Output), 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(opts.Output, []byte(out), 0o600); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Rendered %s -> %s\n", v.Name, opts.Output)
	return nil
}

// loadData reads a YAML mapping of render variables. An empty path or file
// yields an empty map.
func loadData(path string) (map[string]any, error) {
	vars := map[string]any{}
	if path == "" {
		return vars, nil
	}

	content, err := os.ReadFile(path) //nolint:gosec // G304: path is a user-supplied CLI argument
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(content, &node); err != nil {
		return nil, fmt.Errorf("invalid data file %s: %w", path, err)
	}
	if len(node.Content) == 0 {
		return vars, nil
	}
	if node.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("data file %s must contain a mapping", path)
	}
	if err := node.Decode(&vars); err != nil {
		return nil, fmt.Errorf("invalid data file %s: %w", path, err)
	}
	return vars, nil
}
