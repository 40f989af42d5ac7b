package server

import (
	"log/slog"
	"net/http"
	"strconv"

	starctx "github.com/leapstack-labs/leapview/internal/starlark"
	"github.com/leapstack-labs/leapview/internal/views"
	"github.com/starfederation/datastar-go/datastar"
)

// liveReloadScript reloads the page on any event from the stream.
const liveReloadScript = `<script>new EventSource("` + EventsPath +
	`").addEventListener("datastar-patch-elements", () => location.reload())</script>`

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	pageNo := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid page number", http.StatusBadRequest)
			return
		}
		pageNo = n
	}

	v, err := s.views.Resolve(r.URL.Path)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if v == nil {
		http.NotFound(w, r)
		return
	}

	vars := map[string]any{
		views.PageNoVar: pageNo,
		views.PathVar:   r.URL.Path,
	}
	if s.watch {
		vars[views.LiveReloadVar] = starctx.SafeString(liveReloadScript)
	}

	out, err := v.Render(vars)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write([]byte(out))
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("render failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// handleEvents streams a reload script each time a view changes.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	// subscribe before the headers go out so no change is missed
	updates := s.notifier.Subscribe()
	defer s.notifier.Unsubscribe(updates)

	sse := datastar.NewSSE(w, r)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-updates:
			if !ok {
				return
			}
			s.logger.Debug("sending reload", slog.String("file", path))
			if err := sse.ExecuteScript("window.location.reload()"); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}
