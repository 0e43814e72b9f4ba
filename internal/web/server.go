// Package web serves the loop status over HTTP: an HTML page, a JSON
// document, the display contents as PNG and a websocket feed.
package web

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sweeney/boardloop/internal/status"
)

// DefaultPushInterval is the websocket frame period when none is set.
const DefaultPushInterval = 500 * time.Millisecond

// Display renders the current display contents.
type Display interface {
	WritePNG(w io.Writer) error
}

// Options configures a Server.
type Options struct {
	Addr         string
	PushInterval time.Duration
	// Display is optional; /display.png returns 404 without it.
	Display Display
	Log     *zap.Logger
}

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	display    Display
	push       time.Duration
	log        *zap.Logger
	upgrader   websocket.Upgrader

	// mu guards stopped; no client is added once it is set.
	mu      sync.Mutex
	stopped bool
	done    chan struct{}
	clients sync.WaitGroup
}

// New creates a Server that reads state from the given tracker.
func New(tracker *status.Tracker, opts Options) *Server {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.PushInterval <= 0 {
		opts.PushInterval = DefaultPushInterval
	}

	s := &Server{
		tracker: tracker,
		display: opts.Display,
		push:    opts.PushInterval,
		log:     opts.Log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		done: make(chan struct{}),
	}

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/index.html", s.handleIndex)
	r.Get("/index.json", s.handleJSON)
	r.Get("/display.png", s.handleDisplay)
	r.Get("/ws", s.handleWS)
	return r
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	s.log.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on ln.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown stops the listener, ends websocket feeds and waits for them.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		close(s.done)
	}
	s.mu.Unlock()

	err := s.httpServer.Shutdown(ctx)
	s.clients.Wait()
	return err
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderHTML(w, snap, s.display != nil); err != nil {
		s.log.Warn("render index", zap.Error(err))
	}
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleDisplay(w http.ResponseWriter, r *http.Request) {
	if s.display == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.display.WritePNG(w); err != nil {
		s.log.Warn("encode display", zap.Error(err))
	}
}

// handleWS streams one status frame immediately and then one per push
// interval until the client goes away or the server shuts down.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !s.addClient() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	defer s.clients.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	s.log.Debug("websocket client connected", zap.String("remote", r.RemoteAddr))

	// Reads only detect the close; clients send nothing.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.push)
	defer ticker.Stop()

	for {
		snap := s.tracker.Snapshot()
		conn.SetWriteDeadline(time.Now().Add(s.push + time.Second))
		if err := conn.WriteJSON(status.StatusJSON{Status: status.Build(snap)}); err != nil {
			s.log.Debug("websocket write", zap.Error(err))
			return
		}

		select {
		case <-ticker.C:
		case <-gone:
			return
		case <-s.done:
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"),
				time.Now().Add(time.Second))
			return
		}
	}
}

// addClient registers a websocket feed unless Shutdown has started.
func (s *Server) addClient() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.clients.Add(1)
	return true
}
