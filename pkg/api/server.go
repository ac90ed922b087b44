// Package api exposes document editing over HTTP.
//
// The server keeps one [docstore.Store] per open document. The first
// request naming a document loads it through the [docstore.Loader]; later
// requests reuse the session until it is closed or the server stops.
// Commands use the JSON envelope of engine.MarshalCommand.
//
//	POST /documents/quarterly/commands
//	[{"type": "groupWidgets", "payload": {"pageId": "p1", "selection": ["a", "b"]}}]
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/devtoc/infograph/pkg/cache"
	"github.com/devtoc/infograph/pkg/docstore"
	"github.com/devtoc/infograph/pkg/history"
)

// Server serves the editing API.
type Server struct {
	loader *docstore.Loader
	logger *log.Logger

	// render cache
	cache cache.Cache
	keyer cache.Keyer

	newHistory func() history.History
	storeOpts  []docstore.Option

	mu       sync.Mutex
	sessions map[string]*docstore.Store
}

// Option configures a Server.
type Option func(*Server)

// WithRenderCache caches rendered diagrams.
func WithRenderCache(c cache.Cache, keyer cache.Keyer) Option {
	return func(s *Server) {
		s.cache = c
		if keyer != nil {
			s.keyer = keyer
		}
	}
}

// WithHistory gives every session an undo history built by fn.
func WithHistory(fn func() history.History) Option {
	return func(s *Server) { s.newHistory = fn }
}

// WithStoreOptions adds options applied to every session store.
func WithStoreOptions(opts ...docstore.Option) Option {
	return func(s *Server) { s.storeOpts = append(s.storeOpts, opts...) }
}

// NewServer creates a server loading documents with loader.
func NewServer(loader *docstore.Loader, logger *log.Logger, opts ...Option) *Server {
	s := &Server{
		loader:   loader,
		logger:   logger,
		cache:    cache.NewNullCache(),
		keyer:    cache.NewDefaultKeyer(),
		sessions: make(map[string]*docstore.Store),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler of the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.health)
	r.Get("/version", s.version)

	r.Route("/documents", func(r chi.Router) {
		r.Get("/", s.listDocuments)
		r.Route("/{docID}", func(r chi.Router) {
			r.Get("/", s.getDocument)
			r.Delete("/", s.closeDocument)
			r.Get("/check", s.checkDocument)
			r.Post("/commands", s.postCommands)
			r.Post("/undo", s.undo)
			r.Post("/redo", s.redo)
			r.Post("/save", s.save)
			r.Get("/selection", s.getSelection)
			r.Put("/selection", s.putSelection)
			r.Route("/pages/{pageID}", func(r chi.Router) {
				r.Get("/reading-order", s.readingOrder)
				r.Get("/diagram", s.diagram)
				r.Post("/next", s.next)
				r.Post("/previous", s.previous)
			})
		})
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"took", time.Since(start).Round(time.Microsecond),
			"id", middleware.GetReqID(r.Context()),
		)
	})
}

// session returns the open store of docID, loading the document on first
// use.
func (s *Server) session(ctx context.Context, docID string) (*docstore.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.sessions[docID]; ok {
		return st, nil
	}
	opts := []docstore.Option{
		docstore.WithEmitter(docstore.FuncEmitter(func(_ context.Context, event string, data any) {
			s.logger.Debug(event, "doc", docID, "data", data)
		})),
	}
	if s.newHistory != nil {
		opts = append(opts, docstore.WithHistory(s.newHistory()))
	}
	st, err := s.loader.Open(ctx, docID, append(opts, s.storeOpts...)...)
	if err != nil {
		return nil, err
	}
	s.sessions[docID] = st
	s.logger.Info("opened document", "doc", docID)
	return st, nil
}

// Close drops every open session without saving.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.sessions)
}
