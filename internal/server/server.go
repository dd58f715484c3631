// Package server exposes the dashboard and its JSON API.
package server

import (
	"bufio"
	"context"
	"embed"
	"errors"
	"io/fs"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/guardview/guardview/internal/analyzer"
	"github.com/guardview/guardview/internal/config"
	"github.com/guardview/guardview/internal/logger"
	"github.com/guardview/guardview/internal/netmon"
	"github.com/guardview/guardview/internal/storage"
	ws "github.com/guardview/guardview/internal/websocket"
)

//go:embed static
var staticFiles embed.FS

// BuildInfo identifies the running binary on the about panel.
type BuildInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

// Server ties the panels together behind one HTTP listener.
type Server struct {
	cfg         *config.Config
	log         *logger.Logger
	analyzer    *analyzer.Analyzer
	credentials *storage.CredentialStore
	monitor     *netmon.Simulator
	hub         *ws.Hub
	limiter     *rate.Limiter
	build       BuildInfo
	loginHash   []byte

	httpServer *http.Server
}

// Options collects the dependencies a Server needs.
type Options struct {
	Config      *config.Config
	Logger      *logger.Logger
	Analyzer    *analyzer.Analyzer
	Credentials *storage.CredentialStore
	Monitor     *netmon.Simulator
	Hub         *ws.Hub
	Build       BuildInfo
	// LoginHash is the bcrypt hash for the demo login panel.
	LoginHash []byte
}

// New creates the server and its routes.
func New(opts Options) *Server {
	s := &Server{
		cfg:         opts.Config,
		log:         opts.Logger,
		analyzer:    opts.Analyzer,
		credentials: opts.Credentials,
		monitor:     opts.Monitor,
		hub:         opts.Hub,
		build:       opts.Build,
		loginHash:   opts.LoginHash,
		limiter: rate.NewLimiter(
			rate.Limit(opts.Config.RateLimit.RequestsPerSecond),
			opts.Config.RateLimit.Burst,
		),
	}

	s.httpServer = &http.Server{
		Addr:              opts.Config.Server.ListenAddr,
		Handler:           s.accessLog(s.routes()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /api/v1/panels", s.handlePanels)
	mux.HandleFunc("GET /api/v1/credentials", s.handleListCredentials)
	mux.HandleFunc("POST /api/v1/credentials", s.handleAddCredential)
	mux.HandleFunc("DELETE /api/v1/credentials/{id}", s.handleDeleteCredential)
	mux.HandleFunc("GET /api/v1/network/events", s.handleNetworkEvents)
	mux.HandleFunc("POST /api/v1/integrity/digest", s.handleDigest)
	mux.HandleFunc("POST /api/v1/login", s.handleLogin)
	mux.HandleFunc("GET /api/v1/about", s.handleAbout)

	if s.hub != nil {
		mux.HandleFunc("GET /ws", s.hub.ServeWS)
	}

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		// embed guarantees the directory exists
		panic(err)
	}
	mux.Handle("GET /", http.FileServerFS(static))

	return mux
}

// Start blocks serving HTTP until the listener closes.
func (s *Server) Start() error {
	s.log.Info("dashboard listening", logger.Str("addr", s.httpServer.Addr))
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack keeps the websocket upgrade working through the access log wrapper.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("request",
			logger.Str("method", r.Method),
			logger.Str("path", r.URL.Path),
			logger.Int("status", rec.status),
			logger.Dur("took", time.Since(start)),
		)
	})
}
