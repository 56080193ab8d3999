// Package api provides HTTP handlers for the dataset explore REST API.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"bq-demo/internal/middleware"
	"bq-demo/internal/service/explore"
	"bq-demo/internal/service/metadata"
)

// Handler serves the metadata and explore endpoints.
type Handler struct {
	metadata *metadata.Service
	explore  *explore.Service
}

// NewHandler creates a Handler with its service dependencies.
func NewHandler(meta *metadata.Service, exp *explore.Service) *Handler {
	return &Handler{metadata: meta, explore: exp}
}

// RouterOptions configures the middleware stack mounted around the API.
type RouterOptions struct {
	RateLimitRPS       float64
	RateLimitBurst     int
	CORSAllowedOrigins []string
}

// Router mounts all API routes with the standard middleware stack.
func (h *Handler) Router(opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	if opts.RateLimitRPS > 0 {
		r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: opts.RateLimitRPS,
			Burst:             opts.RateLimitBurst,
		}))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Route("/datasets", func(r chi.Router) {
			r.Post("/", h.createDataset)
			r.Get("/", h.listDatasets)
			r.Route("/{datasetID}", func(r chi.Router) {
				r.Get("/", h.getDataset)
				r.Patch("/", h.updateDataset)
				r.Delete("/", h.deleteDataset)

				r.Post("/refresh", h.refreshDataset)

				r.Post("/columns", h.createColumn)
				r.Get("/columns", h.listColumns)

				r.Post("/metrics", h.createMetric)
				r.Get("/metrics", h.listMetrics)
				r.Post("/metrics/generate", h.generateMetrics)
				r.Post("/columns/{columnName}/metrics/generate", h.generateColumnMetrics)

				r.Post("/explain", h.explainQuery)
				r.Post("/query", h.runQuery)
			})
		})
		r.Patch("/columns/{columnID}", h.updateColumn)
		r.Delete("/columns/{columnID}", h.deleteColumn)
		r.Patch("/metrics/{metricID}", h.updateMetric)
		r.Delete("/metrics/{metricID}", h.deleteMetric)
	})

	return r
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := httpStatusFromDomainError(err)
	writeJSON(w, status, map[string]any{
		"code":    status,
		"message": err.Error(),
	})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
