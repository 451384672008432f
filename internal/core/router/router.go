package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	appingest "github.com/mohammed-shakir/osm-ingest/internal/app/ingest"
	"github.com/mohammed-shakir/osm-ingest/internal/core/config"
	"github.com/mohammed-shakir/osm-ingest/internal/core/observability"
	"github.com/mohammed-shakir/osm-ingest/internal/dispatch"
	"github.com/mohammed-shakir/osm-ingest/internal/extent"
	"github.com/mohammed-shakir/osm-ingest/internal/ingest"
	"github.com/mohammed-shakir/osm-ingest/internal/ingest/jsonl"
	"github.com/mohammed-shakir/osm-ingest/internal/osm"
)

// runs ingestion and serves stored extents
type IngestService interface {
	Ingest(ctx context.Context, req appingest.Request, src ingest.Source) (appingest.Result, error)
	Latest(ctx context.Context, dataset string) (extent.Summary, error)
	Run(ctx context.Context, dataset, runID string) (extent.Summary, error)
	Delete(ctx context.Context, dataset string) error
}

type ingestResponse struct {
	Summary extent.Summary `json:"summary"`
	Records int64          `json:"records"`
	Elapsed string         `json:"elapsed"`
}

type errorResponse struct {
	Error string `json:"error"`
	Class string `json:"class,omitempty"`
}

// HandleIngest reads a JSON-lines body and ingests it as one run.
func HandleIngest(logger *slog.Logger, cfg config.Config, svc IngestService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		defer func() {
			observability.ObserveHTTP(r.Method, "/ingest", sw.code, time.Since(start).Seconds())
		}()

		req, err := ParseIngestRequest(r, cfg)
		if err != nil {
			writeJSON(sw, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		body := r.Body
		if cfg.MaxBodyBytes > 0 {
			body = http.MaxBytesReader(sw, r.Body, cfg.MaxBodyBytes)
		}

		res, err := svc.Ingest(r.Context(), req, jsonl.NewReader(body))
		if err != nil {
			code := statusFor(err)
			if code >= http.StatusInternalServerError {
				logger.ErrorContext(r.Context(), "ingest failed", "dataset", req.Dataset, "err", err)
			}
			writeJSON(sw, code, errorResponse{Error: err.Error(), Class: classFor(err)})
			return
		}
		writeJSON(sw, http.StatusOK, ingestResponse{
			Summary: res.Summary,
			Records: res.Stats.Total(),
			Elapsed: res.Stats.Duration.String(),
		})
	}
}

// HandleExtent serves the latest summary of the dataset in the URL.
func HandleExtent(logger *slog.Logger, svc IngestService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		defer func() {
			observability.ObserveHTTP(r.Method, "/extent/{dataset}", sw.code, time.Since(start).Seconds())
		}()

		dataset := chi.URLParam(r, "dataset")
		if !namePattern.MatchString(dataset) {
			writeJSON(sw, http.StatusBadRequest, errorResponse{Error: "invalid dataset name"})
			return
		}
		sum, err := svc.Latest(r.Context(), dataset)
		if err != nil {
			writeLookupError(r.Context(), logger, sw, dataset, err)
			return
		}
		writeJSON(sw, http.StatusOK, sum)
	}
}

// HandleRun serves the summary of one run of a dataset.
func HandleRun(logger *slog.Logger, svc IngestService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		defer func() {
			observability.ObserveHTTP(r.Method, "/extent/{dataset}/runs/{run_id}", sw.code, time.Since(start).Seconds())
		}()

		dataset, runID := chi.URLParam(r, "dataset"), chi.URLParam(r, "run_id")
		if !namePattern.MatchString(dataset) || !namePattern.MatchString(runID) {
			writeJSON(sw, http.StatusBadRequest, errorResponse{Error: "invalid dataset or run id"})
			return
		}
		sum, err := svc.Run(r.Context(), dataset, runID)
		if err != nil {
			writeLookupError(r.Context(), logger, sw, dataset, err)
			return
		}
		writeJSON(sw, http.StatusOK, sum)
	}
}

// HandleDelete forgets the latest summary of a dataset.
func HandleDelete(logger *slog.Logger, svc IngestService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		defer func() {
			observability.ObserveHTTP(r.Method, "/extent/{dataset}", sw.code, time.Since(start).Seconds())
		}()

		dataset := chi.URLParam(r, "dataset")
		if !namePattern.MatchString(dataset) {
			writeJSON(sw, http.StatusBadRequest, errorResponse{Error: "invalid dataset name"})
			return
		}
		err := svc.Delete(r.Context(), dataset)
		switch {
		case errors.Is(err, appingest.ErrBusy):
			writeJSON(sw, http.StatusConflict, errorResponse{Error: err.Error()})
			return
		case err != nil:
			logger.ErrorContext(r.Context(), "extent delete failed", "dataset", dataset, "err", err)
			writeJSON(sw, http.StatusBadGateway, errorResponse{Error: "extent store unavailable"})
			return
		}
		sw.WriteHeader(http.StatusNoContent)
	}
}

func writeLookupError(ctx context.Context, logger *slog.Logger, w http.ResponseWriter, dataset string, err error) {
	if errors.Is(err, appingest.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	logger.ErrorContext(ctx, "extent lookup failed", "dataset", dataset, "err", err)
	writeJSON(w, http.StatusBadGateway, errorResponse{Error: "extent store unavailable"})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

func ParseIngestRequest(r *http.Request, cfg config.Config) (appingest.Request, error) {
	q := r.URL.Query()

	dataset := strings.TrimSpace(q.Get("dataset"))
	if dataset == "" {
		dataset = cfg.Dataset
	}
	if !namePattern.MatchString(dataset) {
		return appingest.Request{}, fmt.Errorf("invalid dataset %q: use letters, digits, '.', '_' or '-'", dataset)
	}

	tagged := cfg.TaggedOnly
	if raw := strings.TrimSpace(q.Get("tagged_only")); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return appingest.Request{}, fmt.Errorf("invalid tagged_only: %w", err)
		}
		tagged = b
	}

	runID := strings.TrimSpace(q.Get("run_id"))
	if runID != "" && !namePattern.MatchString(runID) {
		return appingest.Request{}, fmt.Errorf("invalid run_id %q", runID)
	}

	return appingest.Request{Dataset: dataset, TaggedOnly: tagged, RunID: runID}, nil
}

func statusFor(err error) int {
	var (
		maxErr  *http.MaxBytesError
		lineErr *jsonl.LineError
		seqErr  *dispatch.SequenceError
	)
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, appingest.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, appingest.ErrNoDataset):
		return http.StatusBadRequest
	case errors.As(err, &lineErr), errors.As(err, &seqErr), errors.Is(err, osm.ErrEncoding):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled):
		// client went away
		return 499
	}
	return http.StatusInternalServerError
}

func classFor(err error) string {
	if errors.Is(err, appingest.ErrBusy) || errors.Is(err, appingest.ErrNoDataset) {
		return ""
	}
	return ingest.Classify(err)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
