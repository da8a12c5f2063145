// Package server exposes the comparison viewer over HTTP: dataset upload,
// filtered record pages with their click-weighted summary, and metrics.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/KaramelBytes/serpdiff/internal/comparison"
	"github.com/KaramelBytes/serpdiff/internal/dataset"
	"github.com/KaramelBytes/serpdiff/internal/filter"
	"github.com/KaramelBytes/serpdiff/internal/tabular"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const (
	contentTypeHeader = "Content-Type"
	contentTypeJSON   = "application/json"
	uploadField       = "csvFile"
)

// Options configures a Server.
type Options struct {
	PageSize       int
	MaxUploadBytes int64
	Decode         tabular.Options
}

// Server owns the dataset store and the single viewer session.
type Server struct {
	store   *dataset.Store
	opts    Options
	logger  zerolog.Logger
	metrics *metrics
	router  chi.Router

	// mu serializes session access; handlers run concurrently.
	mu      sync.Mutex
	session *dataset.Session
}

// New builds a server over store.
func New(store *dataset.Store, opts Options, logger zerolog.Logger) (*Server, error) {
	if opts.PageSize <= 0 {
		opts.PageSize = filter.DefaultPageSize
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	m, err := newMetrics()
	if err != nil {
		return nil, err
	}
	s := &Server{
		store:   store,
		opts:    opts,
		logger:  logger,
		metrics: m,
		session: dataset.NewSession(store, opts.PageSize),
	}
	if d := store.Current(); d != nil {
		s.recordDataset(d)
	}
	s.router = s.routes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.handler())
	r.Post("/upload", s.handleUpload)
	r.Route("/api", func(r chi.Router) {
		r.Get("/dataset", s.handleDataset)
		r.Get("/records", s.handleRecords)
		r.Get("/records/next", s.handleNext)
		r.Get("/records/{index}", s.handleRecord)
	})
	return r
}

// instrument logs each request and records its metrics under the matched
// route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "not_found"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		s.metrics.observe(route, status, start)
		s.logger.Debug().
			Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"generation": s.store.Generation(),
	})
}

type datasetView struct {
	*dataset.Dataset
	RecordCount int `json:"record_count"`
}

func viewOf(d *dataset.Dataset) datasetView {
	return datasetView{Dataset: d, RecordCount: d.Len()}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		s.metrics.uploads.WithLabelValues("rejected").Inc()
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		s.writeError(w, http.StatusBadRequest, "No file")
		return
	}
	file, hdr, err := r.FormFile(uploadField)
	if err != nil {
		s.metrics.uploads.WithLabelValues("rejected").Inc()
		s.writeError(w, http.StatusBadRequest, "No file")
		return
	}
	defer file.Close()

	tbl, err := tabular.ReadFrom(hdr.Filename, file, s.opts.Decode)
	if err != nil {
		s.metrics.uploads.WithLabelValues("decode_error").Inc()
		s.logger.Warn().Err(err).Str("file", hdr.Filename).Msg("upload decode failed")
		status := http.StatusUnprocessableEntity
		if errors.Is(err, tabular.ErrUnsupported) {
			status = http.StatusUnsupportedMediaType
		}
		s.writeError(w, status, "Parse error: "+err.Error())
		return
	}
	d, err := s.store.Load(tbl)
	if err != nil {
		var se *comparison.SchemaError
		if errors.As(err, &se) {
			s.metrics.uploads.WithLabelValues("schema_error").Inc()
			s.logger.Warn().Err(err).Str("file", hdr.Filename).Strs("labels", se.Found).Msg("upload rejected, keeping previous dataset")
			s.writeError(w, http.StatusUnprocessableEntity, "Parse error: "+err.Error())
			return
		}
		s.metrics.uploads.WithLabelValues("decode_error").Inc()
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.metrics.uploads.WithLabelValues("ok").Inc()
	s.recordDataset(d)
	s.writeJSON(w, http.StatusOK, viewOf(d))
}

// recordDataset logs and publishes metrics for a newly installed dataset.
func (s *Server) recordDataset(d *dataset.Dataset) {
	s.metrics.records.Set(float64(d.Len()))
	s.metrics.generation.Set(float64(d.Generation))
	s.logger.Info().EmbedObject(d).Msg("dataset loaded")
}

func (s *Server) handleDataset(w http.ResponseWriter, _ *http.Request) {
	d := s.store.Current()
	if d == nil {
		s.writeError(w, http.StatusNotFound, dataset.ErrNoDataset.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, viewOf(d))
}

type recordsResponse struct {
	Labels      comparison.LabelPair `json:"labels"`
	Query       filter.Query         `json:"query"`
	Page        dataset.Page         `json:"page"`
	Summary     filter.Summary       `json:"summary"`
	SummaryText string               `json:"summary_text"`
	Refreshed   bool                 `json:"refreshed,omitempty"`
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	q, err := ParseQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	page, err := s.session.Apply(q)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	s.respondPage(w, page, false)
}

// handleNext reveals the next page. When the dataset was replaced since the
// query was applied, the query is re-applied and its first page returned.
func (s *Server) handleNext(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page, err := s.session.Next()
	refreshed := false
	if errors.Is(err, dataset.ErrStaleGeneration) {
		s.logger.Info().Uint64("generation", s.store.Generation()).Msg("dataset replaced, re-applying last query")
		page, err = s.session.Refresh()
		refreshed = true
	}
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	s.respondPage(w, page, refreshed)
}

// respondPage must be called with s.mu held. The page and summary both come
// from the generation the session was applied against, so an upload racing
// with the request cannot split them.
func (s *Server) respondPage(w http.ResponseWriter, page dataset.Page, refreshed bool) {
	sum := s.session.AppliedSummary()
	s.metrics.matches.Set(float64(page.Total))
	labels := s.session.Dataset().Labels
	s.writeJSON(w, http.StatusOK, recordsResponse{
		Labels:      labels,
		Query:       s.session.Query(),
		Page:        page,
		Summary:     sum,
		SummaryText: sum.Text(labels),
		Refreshed:   refreshed,
	})
}

type recordResponse struct {
	Index      int                   `json:"index"`
	Generation uint64                `json:"generation"`
	Record     *comparison.Record    `json:"record"`
	Delta      string                `json:"delta"`
	Diff       []comparison.SlotDiff `json:"diff"`
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid record index")
		return
	}
	d := s.store.Current()
	if d == nil {
		s.writeError(w, http.StatusNotFound, dataset.ErrNoDataset.Error())
		return
	}
	// indices are only meaningful within the generation that listed them
	if raw := r.URL.Query().Get("generation"); raw != "" {
		gen, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid generation")
			return
		}
		if gen != d.Generation {
			s.writeError(w, http.StatusConflict, dataset.ErrStaleGeneration.Error())
			return
		}
	}
	rec, ok := d.Record(idx)
	if !ok {
		s.writeError(w, http.StatusNotFound, "record not found")
		return
	}
	s.writeJSON(w, http.StatusOK, recordResponse{
		Index:      idx,
		Generation: d.Generation,
		Record:     rec,
		Delta:      rec.Delta().String(),
		Diff:       rec.Diff(),
	})
}

func (s *Server) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dataset.ErrNoDataset):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, dataset.ErrNoQuery):
		s.writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error().Err(err).Msg("session failed")
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set(contentTypeHeader, contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("write json failed")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
