package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dvloznov/dataset-loader/internal/api/middleware"
	"github.com/dvloznov/dataset-loader/internal/catalog"
	"github.com/dvloznov/dataset-loader/internal/jobs"
	"github.com/dvloznov/dataset-loader/internal/split"
	"github.com/rs/zerolog"
)

// DatasetsHandler handles dataset load endpoints.
type DatasetsHandler struct {
	publisher       jobs.Publisher
	defaultDatabase string
	log             zerolog.Logger
}

// NewDatasetsHandler creates a new datasets handler. Requests without a
// database load into defaultDatabase.
func NewDatasetsHandler(publisher jobs.Publisher, defaultDatabase string, log zerolog.Logger) *DatasetsHandler {
	if defaultDatabase == "" {
		defaultDatabase = catalog.DefaultDatabase
	}
	return &DatasetsHandler{
		publisher:       publisher,
		defaultDatabase: defaultDatabase,
		log:             log,
	}
}

// LoadRequest is the body of POST /api/datasets/load.
type LoadRequest struct {
	ArchivePath string       `json:"archive_path"`
	Database    string       `json:"database"`
	Table       string       `json:"table"`
	Ratios      split.Ratios `json:"ratios"`
}

// EnqueueLoad handles POST /api/datasets/load
func (h *DatasetsHandler) EnqueueLoad(w http.ResponseWriter, r *http.Request) {
	var req LoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.ArchivePath == "" || req.Table == "" {
		middleware.WriteError(w, http.StatusBadRequest, "archive_path and table are required")
		return
	}

	if req.Database == "" {
		req.Database = h.defaultDatabase
	}

	job := &jobs.LoadDatasetJob{
		ArchivePath: req.ArchivePath,
		Database:    req.Database,
		Table:       req.Table,
		Ratios:      req.Ratios,
	}

	// Reject what the loader would reject before it reaches the queue.
	check := job.Request()
	if check.Ratios.IsZero() {
		check.Ratios = split.DefaultRatios()
	}
	if err := check.Validate(); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if err := h.publisher.PublishLoadDataset(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue load job")
		middleware.WriteError(w, http.StatusServiceUnavailable, "Failed to enqueue load job")
		return
	}

	h.log.Info().
		Str("job_id", job.JobID).
		Str("archive", job.ArchivePath).
		Str("table", job.TableInfo().String()).
		Str("request_id", middleware.GetRequestID(ctx)).
		Msg("Load job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"table":  job.TableInfo().String(),
		"status": string(job.Status),
	})
}

// TablesHandler handles catalog endpoints.
type TablesHandler struct {
	catalog catalog.Catalog
	log     zerolog.Logger
}

// NewTablesHandler creates a new tables handler.
func NewTablesHandler(c catalog.Catalog, log zerolog.Logger) *TablesHandler {
	return &TablesHandler{
		catalog: c,
		log:     log,
	}
}

// ListTables handles GET /api/tables
func (h *TablesHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tables, err := h.catalog.ListTables(ctx, r.URL.Query().Get("database"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list tables")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list tables")
		return
	}

	if tables == nil {
		tables = []*catalog.TableEntry{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tables": tables,
		"count":  len(tables),
	})
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if errors.Is(err, jobs.ErrJobNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse query parameters
	query := r.URL.Query()
	filter := jobs.JobFilter{
		Table:  query.Get("table"),
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
