package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/leapstack-labs/leapview/internal/server"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command. --port and --watch are read
// through the config layer as serve.port and serve.watch.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve views over HTTP",
		Long: `Start a local web server rendering views on request.

Request paths resolve like "leapview render" targets; ?page=N sets page_no.
With --watch, changed files are recompiled and pages that include
{{ livereload }} reload themselves.`,
		Example: `  # Serve on the default port
  leapview serve

  # Serve on a custom port without watching
  leapview serve --port 3000 --watch=false`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().Int("port", 0, "Port to serve on (default: 8080)")
	cmd.Flags().Bool("watch", true, "Watch views for changes")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	srv := server.New(server.Config{
		Views:  cc.Views,
		Port:   cc.Cfg.Serve.Port,
		Watch:  cc.Cfg.Serve.Watch,
		Logger: cc.Logger,
	})

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://localhost:%d\n", cc.Views.Dir(), cc.Cfg.Serve.Port)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, srv)
}

// serve is replaced in tests.
var serve = func(ctx context.Context, srv *server.Server) error {
	return srv.Serve(ctx)
}
