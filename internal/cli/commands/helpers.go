package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leapview/internal/cli/config"
	"github.com/leapstack-labs/leapview/internal/helpers"
	"github.com/spf13/cobra"
)

// NewHelpersCommand creates the helpers command.
func NewHelpersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "helpers",
		Short: "List Starlark helper functions",
		Long: `List the public functions of every .star file in the helpers directory.

Each file becomes a namespace in templates, so a function money in helpers/fmt.star
is called as {{ fmt.money(price) }}. Files are parsed, not executed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetConfig(cmd.Context())

			namespaces, err := helpers.Describe(cfg.HelpersDir)
			if err != nil {
				return err
			}
			renderHelperTable(cmd.OutOrStdout(), namespaces)
			return nil
		},
	}
}

func renderHelperTable(w io.Writer, namespaces []*helpers.Namespace) {
	var count int
	for _, ns := range namespaces {
		count += len(ns.Functions)
	}
	if count == 0 {
		_, _ = fmt.Fprintln(w, "(0 helpers)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Function", "Description", "Location"})

	for _, ns := range namespaces {
		for _, fn := range ns.Functions {
			doc, _, _ := strings.Cut(fn.Docstring, "\n")
			t.AppendRow(table.Row{
				ns.Name + "." + fn.Signature(),
				doc,
				fmt.Sprintf("%s:%d", filepath.Base(ns.Path), fn.Line),
			})
		}
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d helpers)\n", count)
}
