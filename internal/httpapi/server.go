package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"scheduled-tasks/internal/task"
)

const DefaultRequestTimeout = 10 * time.Second

type Server struct {
	service *task.Service
	db      DBPinger
	logger  *slog.Logger
	handler http.Handler
}

// NewServer wires the routes and middleware. A non-positive timeout falls
// back to DefaultRequestTimeout.
func NewServer(svc *task.Service, db DBPinger, logger *slog.Logger, timeout time.Duration) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	s := &Server{
		service: svc,
		db:      db,
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", HealthzHandler())
	mux.HandleFunc("GET /readyz", ReadyzHandler(db))
	mux.HandleFunc("POST /tasks", s.handleCreateTask)
	mux.HandleFunc("GET /tasks/{id}", s.handleShowTask)

	s.handler = WithRequestID(
		Logging(logger)(
			WithTimeout(mux, timeout),
		),
	)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
