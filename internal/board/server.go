package board

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/suman-15/whisper-asr-multilang/internal/render"
)

const readHeaderTimeout = 10 * time.Second

// PageFunc returns a fresh hosting page for one render.
type PageFunc func() (*render.DOMSink, error)

// Server renders the results page on every request, so reloading the page retries the load.
type Server struct {
	addr    string
	loader  Loader
	path    string
	newPage PageFunc
	logger  *slog.Logger
}

func NewServer(addr string, l Loader, path string, newPage PageFunc, logger *slog.Logger) *Server {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = ":8080"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{addr: addr, loader: l, path: path, newPage: newPage, logger: logger}
}

func (s *Server) Addr() string {
	return s.addr
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = fmt.Fprint(w, "ok")
	})
	return mux
}

// Run serves until ctx is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.logger.Info("serving results page", "addr", s.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	page, err := s.newPage()
	if err != nil {
		s.logger.Error("failed to prepare page", "error", err)
		http.Error(w, "results page unavailable", http.StatusInternalServerError)
		return
	}
	state, err := Run(r.Context(), s.loader, page, s.path, s.logger)
	if err != nil {
		s.logger.Error("failed to render page", "error", err)
		http.Error(w, "results page unavailable", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		s.logger.Error("failed to write page", "error", err)
		http.Error(w, "results page unavailable", http.StatusInternalServerError)
		return
	}
	s.logger.Debug("page rendered", "state", state.String())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}
