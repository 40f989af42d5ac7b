package commands

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leapview/internal/views"
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all views",
		Long:  `Compile every file in the views directory and list it with its frontmatter.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			list, err := cc.Views.List()
			if err != nil {
				return err
			}
			renderViewTable(cmd.OutOrStdout(), list)
			return nil
		},
	}
}

func renderViewTable(w io.Writer, list []*views.View) {
	if len(list) == 0 {
		_, _ = fmt.Fprintln(w, "(0 views)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"View", "Title", "Markdown", "Layout"})

	for _, v := range list {
		markdown := ""
		if v.IsMarkdown {
			markdown = "yes"
		}
		t.AppendRow(table.Row{v.Name, v.Meta.Title, markdown, v.Meta.Layout})
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d views)\n", len(list))
}
