// Package server is the stateless HTTP translation layer: it parses
// requests, invokes the store through the lazy adapter and shapes every
// outcome into the uniform response envelope.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"inkwell/internal/store"
	"inkwell/internal/upload"
)

type Server struct {
	store   *store.Adapter
	uploads upload.Gateway
	logger  *zap.Logger
	router  *mux.Router
	server  *http.Server

	// uploadsDir, when non-empty, enables the /uploads/ static file route
	// for the disk backend.
	uploadsDir string
}

func New(adapter *store.Adapter, uploads upload.Gateway, uploadsDir string, logger *zap.Logger) *Server {
	s := &Server{
		store:      adapter,
		uploads:    uploads,
		logger:     logger,
		router:     mux.NewRouter(),
		uploadsDir: uploadsDir,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	s.router.HandleFunc("/articles", s.handleListArticles).Methods("GET")
	s.router.HandleFunc("/articles", s.handleCreateArticle).Methods("POST")
	s.router.HandleFunc("/articles/{id}", s.handleGetArticle).Methods("GET")
	s.router.HandleFunc("/articles/{id}", s.handleUpdateArticle).Methods("PUT")
	s.router.HandleFunc("/articles/{id}", s.handleDeleteArticle).Methods("DELETE")

	s.router.HandleFunc("/upload", s.handleUpload).Methods("POST")
	s.router.HandleFunc("/upload", s.handleListUploads).Methods("GET")

	if s.uploadsDir != "" {
		s.router.PathPrefix("/uploads/").Handler(
			http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.uploadsDir))))
	}
}

// Handler wraps the router with panic recovery and CORS for the browser
// editing client. A panic becomes a plain 500, never a stack trace on the
// wire.
func (s *Server) Handler() http.Handler {
	h := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(s.router)
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(s.logger)),
	)(h)
}

// Start launches the HTTP server and blocks until it stops.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.logger.Info("http server listening", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Connect(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := st.Ping(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}
