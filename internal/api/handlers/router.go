package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/dataset-loader/internal/api/middleware"
	"github.com/dvloznov/dataset-loader/internal/catalog"
	"github.com/dvloznov/dataset-loader/internal/jobs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps are the collaborators the HTTP API is served from.
type RouterDeps struct {
	Publisher jobs.Publisher
	Store     jobs.JobStore
	Catalog   catalog.Catalog
	// DefaultDatabase is used for load requests that name no database.
	DefaultDatabase string
	// Gatherer backs /metrics; the route is omitted when nil.
	Gatherer prometheus.Gatherer
	Log      zerolog.Logger
}

// NewRouter builds the API mux wrapped in the standard middleware stack.
func NewRouter(deps RouterDeps) http.Handler {
	datasetsHandler := NewDatasetsHandler(deps.Publisher, deps.DefaultDatabase, deps.Log)
	tablesHandler := NewTablesHandler(deps.Catalog, deps.Log)
	jobsHandler := NewJobsHandler(deps.Store, deps.Log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/datasets/load", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			datasetsHandler.EnqueueLoad(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/tables", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			tablesHandler.ListTables(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
		if jobID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
			return
		}
		jobsHandler.GetJob(w, r, jobID)
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	if deps.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	return middleware.Chain(mux, deps.Log)
}
