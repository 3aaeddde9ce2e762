package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/txsync/internal/http/ingest"
	"github.com/MrJamesThe3rd/txsync/internal/http/reconcile"
)

type Options struct {
	// AuthSecret enables bearer auth on /api/v1 when set.
	AuthSecret  string
	CORSOrigins []string
}

func New(
	opts Options,
	ingestV1 *ingest.Handler,
	reconcileV1 *reconcile.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	router.Route("/api/v1", func(r chi.Router) {
		if opts.AuthSecret != "" {
			r.Use(RequireBearer([]byte(opts.AuthSecret)))
		}

		r.Get("/formats", ingestV1.Formats)

		r.Route("/ingest", ingestV1.Routes)

		r.Route("/reconcile", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			reconcileV1.Routes(r)
		})
	})

	return router
}
