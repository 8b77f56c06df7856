package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

type Server struct {
	mux    *chi.Mux
	writes *visitorStore
}

type Options struct {
	Tokens     TokenParser
	Timeout    time.Duration
	WriteRPS   int // 0 disables the write limiter
	WriteBurst int
	VisitorTTL time.Duration
}

func New(o Options) *Server {
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	m := chi.NewRouter()

	// All middlewares go before any routes are added.
	m.Use(chimw.RealIP)
	m.Use(chimw.RequestID)
	m.Use(chimw.Recoverer)
	m.Use(Timeout(o.Timeout))
	m.Use(Metrics)
	m.Use(Logger(log.Logger))
	m.Use(Authenticate(o.Tokens))

	s := &Server{mux: m}
	if o.WriteRPS > 0 {
		if o.VisitorTTL <= 0 {
			o.VisitorTTL = 10 * time.Minute
		}
		s.writes = newVisitorStore(o.WriteRPS, o.WriteBurst, o.VisitorTTL)
	}
	return s
}

func (s *Server) Mux() http.Handler { return s.mux }

// Close releases background resources. The router keeps serving.
func (s *Server) Close() {
	if s.writes != nil {
		s.writes.Close()
	}
}

// Mount attaches any extra handler (e.g., /metrics) to the router.
func (s *Server) Mount(path string, h http.Handler) {
	s.mux.Handle(path, h)
}

// writeLimit wraps mutating handlers with the per-client limiter, when enabled.
func (s *Server) writeLimit(h http.HandlerFunc) http.Handler {
	if s.writes == nil {
		return h
	}
	return rateLimit(s.writes)(h)
}
