// Package server provides the glossary preview server: it serves a
// source HTML file with glossary substitution applied, watches the
// source and the glossary definitions for changes, and pushes reload
// events to connected browsers over a websocket.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/glosslink/glosslink/internal/config"
	"github.com/glosslink/glosslink/internal/engine"
	"github.com/glosslink/glosslink/internal/errors"
	"github.com/glosslink/glosslink/internal/logging"
	"github.com/glosslink/glosslink/internal/types"
	"github.com/glosslink/glosslink/internal/watcher"
)

// reloadScript is injected into served documents so the browser
// reconnects and reloads when content or glossary definitions change.
const reloadScript = `<script>
(function() {
	var ws = new WebSocket("ws://" + location.host + "/ws");
	ws.onmessage = function() { location.reload(); };
})();
</script>`

// GlossarySource is the reloadable glossary backing the preview.
type GlossarySource interface {
	Reload() error
	Path() string
}

// Server is the preview server.
type Server struct {
	cfg      config.ServerConfig
	engine   *engine.Engine
	glossary GlossarySource
	source   string
	page     types.PageContext
	opts     engine.Options
	logger   logging.Logger

	clientsMutex sync.Mutex
	clients      map[*websocket.Conn]struct{}
}

// New creates a preview server for one source file.
func New(cfg config.ServerConfig, eng *engine.Engine, glossary GlossarySource, source string, page types.PageContext, opts engine.Options, logger logging.Logger) *Server {
	return &Server{
		cfg:      cfg,
		engine:   eng,
		glossary: glossary,
		source:   source,
		page:     page,
		opts:     opts,
		logger:   logger.WithComponent("preview_server"),
		clients:  make(map[*websocket.Conn]struct{}),
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
}

// Start serves until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	fw, err := watcher.New(100*time.Millisecond, s.logger)
	if err != nil {
		return err
	}
	defer fw.Stop()

	if err := fw.AddPath(s.source); err != nil {
		return err
	}
	if s.glossary != nil {
		if err := fw.AddPath(s.glossary.Path()); err != nil {
			return err
		}
	}
	fw.AddHandler(func(paths []string) { s.onChange(ctx, paths) })
	fw.Start(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/ws", s.handleWebSocket)

	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "preview server listening", "addr", s.Addr(), "source", s.source)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, errors.ErrorTypeIO, "server_listen", "preview server failed")
	}
	return nil
}

// handleIndex serves the processed source document with the reload
// script injected.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	content, err := os.ReadFile(s.source)
	if err != nil {
		s.logger.Error(r.Context(), err, "cannot read source file", "source", s.source)
		http.Error(w, "cannot read source file", http.StatusInternalServerError)
		return
	}

	processed := s.engine.Process(r.Context(), string(content), s.page, s.opts)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(injectReload(processed)))
}

// injectReload places the reload script before </body> when present,
// otherwise appends it.
func injectReload(content string) string {
	if idx := strings.LastIndex(strings.ToLower(content), "</body>"); idx != -1 {
		return content[:idx] + reloadScript + content[idx:]
	}
	return content + reloadScript
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// The preview server binds to localhost and serves its own
		// reload script; cross-origin access is not expected.
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.logger.Warn(r.Context(), err, "websocket upgrade failed")
		return
	}

	s.clientsMutex.Lock()
	s.clients[conn] = struct{}{}
	s.clientsMutex.Unlock()

	// Hold the connection open until the peer goes away.
	ctx := conn.CloseRead(r.Context())
	<-ctx.Done()

	s.clientsMutex.Lock()
	delete(s.clients, conn)
	s.clientsMutex.Unlock()
	conn.Close(websocket.StatusNormalClosure, "")
}

// onChange reloads the glossary when its file changed, drops cached
// registries, and tells every client to refresh.
func (s *Server) onChange(ctx context.Context, paths []string) {
	for _, p := range paths {
		if s.glossary != nil && p == s.glossary.Path() {
			if err := s.glossary.Reload(); err != nil {
				s.logger.Warn(ctx, err, "glossary reload failed, keeping previous definitions")
				continue
			}
			s.engine.InvalidateRegistry()
			s.logger.Info(ctx, "glossary definitions reloaded")
		}
	}
	s.broadcastReload(ctx)
}

func (s *Server) broadcastReload(ctx context.Context) {
	s.clientsMutex.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for c := range s.clients {
		conns = append(conns, c)
	}
	s.clientsMutex.Unlock()

	for _, c := range conns {
		writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := c.Write(writeCtx, websocket.MessageText, []byte("reload")); err != nil {
			s.logger.Debug(ctx, "dropping unreachable client", "error", err.Error())
		}
		cancel()
	}
}
