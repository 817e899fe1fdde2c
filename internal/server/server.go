// Package server provides the HTTP API for ScrewSavvy.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/config"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/feedback"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/indexer"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/search"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/storage"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/vector"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// maxUploadBytes bounds multipart uploads.
const maxUploadBytes = 32 << 20

// WatchService manages the inbox directories at runtime.
type WatchService interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
}

// Deps are the collaborators the HTTP layer delegates to.
type Deps struct {
	Engine    *search.Engine
	Indexer   *indexer.Indexer
	Documents storage.DocumentStore
	Feedback  *feedback.Recorder
	// FeedbackStore is optional; when set the status endpoint reports the feedback count
	// and GET /api/v1/feedback lists entries.
	FeedbackStore storage.FeedbackStore
	Vectors       vector.Store
	Watch         WatchService
	Config        *config.Config
	// ConfigPath is where watch directory changes are persisted. Empty disables persistence.
	ConfigPath string
	Logger     *zap.Logger
}

// Server is the HTTP server for the ScrewSavvy API.
type Server struct {
	engine        *search.Engine
	indexer       *indexer.Indexer
	documents     storage.DocumentStore
	feedback      *feedback.Recorder
	feedbackStore storage.FeedbackStore
	vectors       vector.Store
	watch         WatchService
	config        *config.Config
	logger        *zap.Logger
	server        *http.Server

	configPath string
	// watchConfig is a private copy written back to configPath; config itself stays untouched.
	watchConfig   *config.Config
	watchConfigMu sync.Mutex
}

// NewServer creates a server with the given dependencies.
func NewServer(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := d.Config
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Server{
		engine:        d.Engine,
		indexer:       d.Indexer,
		documents:     d.Documents,
		feedback:      d.Feedback,
		feedbackStore: d.FeedbackStore,
		vectors:       d.Vectors,
		watch:         d.Watch,
		config:        cfg,
		logger:        logger,
		configPath:    d.ConfigPath,
	}
	if d.ConfigPath != "" {
		cp := *cfg
		cp.Watch.Directories = append([]string(nil), cfg.Watch.Directories...)
		s.watchConfig = &cp
	}
	return s
}

// Routes builds the router. Start serves it; tests drive it through httptest.
func (s *Server) Routes() http.Handler {
	timeout := time.Duration(s.config.Server.RequestTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(config.DefaultRequestTimeoutSecs) * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors(s.config.Server.CORSOrigins))
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/documents", s.handleUpload)
		r.Get("/documents", s.handleListDocuments)
		r.Get("/documents/{id}", s.handleGetDocument)
		r.Post("/chat", s.handleChat)
		r.Post("/search", s.handleSearch)
		r.Post("/feedback", s.handleFeedback)
		r.Get("/feedback", s.handleListFeedback)
		r.Get("/status", s.handleStatus)
		r.Get("/watch/directories", s.handleWatchDirectoriesList)
		r.Post("/watch/directories", s.handleWatchDirectoriesAdd)
		r.Delete("/watch/directories", s.handleWatchDirectoriesRemove)
	})

	// Routes used by the original web frontend.
	r.Post("/process-pdf", s.handleUpload)
	r.Post("/chat-query", s.handleChat)
	r.Post("/save-feedback", s.handleFeedback)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
