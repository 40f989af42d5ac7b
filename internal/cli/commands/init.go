package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// ConfigFileName is the project configuration file written by init.
const ConfigFileName = "leapview.yaml"

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var example bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new leapview project",
		Long: `Initialize a new leapview project with default directory structure and configuration.

This creates:
  - views/ directory with an index view and a base layout
  - helpers/ directory for Starlark helper functions
  - leapview.yaml configuration file

Use --example to also create a markdown page and a paginated blog index.`,
		Example: `  # Initialize in current directory
  leapview init

  # Initialize with the example site
  leapview init --example

  # Initialize in a new directory
  leapview init my-site --example

  # Force overwrite existing files
  leapview init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			template := "minimal"
			if example {
				template = "example"
			}
			return runInit(cmd.OutOrStdout(), dir, template, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	cmd.Flags().BoolVar(&example, "example", false, "Create the example site with markdown and pagination")

	return cmd
}

func runInit(w io.Writer, dir, template string, force bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", ConfigFileName)
	}

	files, err := writeScaffold(template, dir, force)
	if err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	for _, section := range []struct{ title, key string }{
		{"Configuration", "config"},
		{"Views", "views"},
		{"Helpers", "helpers"},
	} {
		var printed bool
		for _, f := range files {
			if f.Section != section.key {
				continue
			}
			if !printed {
				_, _ = fmt.Fprintf(w, "%s\n", section.title)
				printed = true
			}
			if f.Kept {
				_, _ = fmt.Fprintf(w, "  - %s (kept)\n", f.Name)
			} else {
				_, _ = fmt.Fprintf(w, "  ✓ %s\n", f.Name)
			}
		}
		if printed {
			_, _ = fmt.Fprintln(w)
		}
	}

	_, _ = fmt.Fprintln(w, "leapview project initialized!")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Next steps:")
	_, _ = fmt.Fprintln(w, "  leapview list     List views and their frontmatter")
	_, _ = fmt.Fprintln(w, "  leapview render / Render the index view")
	_, _ = fmt.Fprintln(w, "  leapview serve    Serve views with live reload")
	_, _ = fmt.Fprintln(w, "  leapview build    Write every page to public/")

	return nil
}
