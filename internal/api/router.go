package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eulerhq/euler-api/internal/api/middleware"
)

// RouterDeps bundles the handlers the router wires up.
type RouterDeps struct {
	Auth      *AuthHandler
	Documents *DocumentHandler
	Solve     *SolveHandler
	Tasks     *TaskHandler
	AuthMW    *middleware.AuthMiddleware
}

// NewRouter builds the HTTP router: public health, metrics, and login
// endpoints, and the JWT-protected /api surface.
func NewRouter(deps RouterDeps) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.TraceMiddleware)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/auth/login", deps.Auth.Login)

	r.Route("/api", func(r chi.Router) {
		r.Use(deps.AuthMW.Authenticate)

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", deps.Documents.CreateDocument)
			r.Get("/", deps.Documents.ListDocuments)
			r.Get("/{id}", deps.Documents.GetDocument)
			r.Post("/{id}/process", deps.Documents.ProcessDocument)
			r.Get("/{id}/chunks", deps.Documents.GetChunks)
			r.Get("/{id}/progress", deps.Documents.StreamProgress)
		})

		r.Route("/solve", func(r chi.Router) {
			r.Post("/", deps.Solve.CreateSolveRequest)
			r.Get("/{id}", deps.Solve.GetSolveRequest)
		})

		r.Get("/tasks/{id}", deps.Tasks.GetTask)
		r.Get("/dead-letters", deps.Tasks.ListDeadLetters)
	})

	return r
}
