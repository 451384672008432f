package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	appingest "github.com/mohammed-shakir/osm-ingest/internal/app/ingest"
	"github.com/mohammed-shakir/osm-ingest/internal/core/config"
	"github.com/mohammed-shakir/osm-ingest/internal/extent"
	h3mapper "github.com/mohammed-shakir/osm-ingest/internal/mapper/h3"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func testCfg() config.Config {
	return config.Config{Dataset: "default", MaxBodyBytes: 1 << 20}
}

func newMux(cfg config.Config, svc IngestService) http.Handler {
	r := chi.NewRouter()
	r.Post("/ingest", HandleIngest(quiet(), cfg, svc))
	r.Get("/extent/{dataset}", HandleExtent(quiet(), svc))
	r.Delete("/extent/{dataset}", HandleDelete(quiet(), svc))
	r.Get("/extent/{dataset}/runs/{run_id}", HandleRun(quiet(), svc))
	return r
}

func newService() *appingest.Service {
	return appingest.New(appingest.Options{
		Logger: quiet(),
		Mapper: h3mapper.New(0),
		Res:    6,
		Now:    func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) },
	})
}

const body = `{"type":"node","id":1,"lon":18.0,"lat":59.3}
{"type":"node","id":2,"lon":18.1,"lat":59.4,"tags":{"shop":"bakery"}}
{"type":"way","id":3,"refs":[1,2]}
`

func TestIngestThenExtent(t *testing.T) {
	mux := newMux(testCfg(), newService())

	req := httptest.NewRequest(http.MethodPost, "/ingest?dataset=stockholm&run_id=r1", strings.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("ingest status=%d body=%s", rr.Code, rr.Body)
	}
	var out ingestResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Records != 3 || out.Summary.Nodes != 2 || out.Summary.RunID != "r1" || out.Summary.Bounds == nil {
		t.Fatalf("response=%+v", out)
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/extent/stockholm", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("extent status=%d", rr.Code)
	}
	var sum extent.Summary
	if err := json.Unmarshal(rr.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.Dataset != "stockholm" || sum.Ways != 1 || sum.Coverage == nil {
		t.Fatalf("summary=%+v", sum)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type=%q", ct)
	}
}

func TestIngest_StatusMapping(t *testing.T) {
	cases := []struct {
		name  string
		query string
		body  string
		code  int
		class string
	}{
		{"bad json", "?dataset=a", "{nope\n", http.StatusUnprocessableEntity, "source"},
		{"out of order", "?dataset=b", `{"type":"way","id":1}` + "\n" + `{"type":"node","id":2}`, http.StatusUnprocessableEntity, "sequence"},
		{"unencodable coordinate", "?dataset=c", `{"type":"node","id":1,"lon":500,"lat":1}`, http.StatusUnprocessableEntity, "source"},
		{"bad dataset", "?dataset=a/b", body, http.StatusBadRequest, ""},
		{"bad tagged_only", "?tagged_only=maybe", body, http.StatusBadRequest, ""},
		{"bad run id", "?run_id=" + strings.Repeat("x", 200), body, http.StatusBadRequest, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mux := newMux(testCfg(), newService())
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/ingest"+tc.query, strings.NewReader(tc.body)))
			if rr.Code != tc.code {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tc.code, rr.Body)
			}
			var e errorResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if e.Error == "" || e.Class != tc.class {
				t.Fatalf("error body=%+v want class %q", e, tc.class)
			}
		})
	}
}

func TestIngest_BodyTooLarge(t *testing.T) {
	cfg := testCfg()
	cfg.MaxBodyBytes = 16
	mux := newMux(cfg, newService())
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(body)))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body)
	}
}

func TestIngest_DefaultsFromConfig(t *testing.T) {
	cfg := testCfg()
	cfg.TaggedOnly = true
	req := httptest.NewRequest(http.MethodPost, "/ingest", nil)
	got, err := ParseIngestRequest(req, cfg)
	if err != nil {
		t.Fatalf("ParseIngestRequest: %v", err)
	}
	if got.Dataset != "default" || !got.TaggedOnly || got.RunID != "" {
		t.Fatalf("req=%+v", got)
	}

	req = httptest.NewRequest(http.MethodPost, "/ingest?tagged_only=false&dataset=se", nil)
	got, err = ParseIngestRequest(req, cfg)
	if err != nil || got.TaggedOnly || got.Dataset != "se" {
		t.Fatalf("req=%+v err=%v", got, err)
	}
}

type failingStore struct{ appingest.Store }

func (failingStore) Latest(context.Context, string) (extent.Summary, bool, error) {
	return extent.Summary{}, false, errors.New("redis down")
}

func (failingStore) Run(context.Context, string, string) (extent.Summary, bool, error) {
	return extent.Summary{}, false, errors.New("redis down")
}

func (failingStore) Delete(context.Context, string) error { return errors.New("redis down") }

func TestExtent_Errors(t *testing.T) {
	mux := newMux(testCfg(), newService())
	for path, code := range map[string]int{
		"/extent/missing":    http.StatusNotFound,
		"/extent/bad%20name": http.StatusBadRequest,
	} {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != code {
			t.Fatalf("%s status=%d want %d", path, rr.Code, code)
		}
	}

	svc := appingest.New(appingest.Options{Logger: quiet(), Store: failingStore{}})
	rr := httptest.NewRecorder()
	newMux(testCfg(), svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/extent/x", nil))
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("store failure status=%d", rr.Code)
	}
	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/extent/x/runs/r1", nil),
		httptest.NewRequest(http.MethodDelete, "/extent/x", nil),
	} {
		rr := httptest.NewRecorder()
		newMux(testCfg(), svc).ServeHTTP(rr, req)
		if rr.Code != http.StatusBadGateway {
			t.Fatalf("%s %s status=%d", req.Method, req.URL.Path, rr.Code)
		}
	}
}

func TestRunLookupAndDelete(t *testing.T) {
	mux := newMux(testCfg(), newService())
	for _, runID := range []string{"r1", "r2"} {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost,
			"/ingest?dataset=stockholm&run_id="+runID, strings.NewReader(body)))
		if rr.Code != http.StatusOK {
			t.Fatalf("ingest %s status=%d body=%s", runID, rr.Code, rr.Body)
		}
	}

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/extent/stockholm/runs/r1", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("run status=%d", rr.Code)
	}
	var sum extent.Summary
	if err := json.Unmarshal(rr.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.RunID != "r1" || sum.Dataset != "stockholm" {
		t.Fatalf("run summary=%+v", sum)
	}

	for path, code := range map[string]int{
		"/extent/stockholm/runs/r9":       http.StatusNotFound,
		"/extent/stockholm/runs/bad%20id": http.StatusBadRequest,
	} {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != code {
			t.Fatalf("%s status=%d want %d", path, rr.Code, code)
		}
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/extent/stockholm", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/extent/stockholm", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("latest after delete status=%d", rr.Code)
	}
	// run summaries outlive the latest pointer
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/extent/stockholm/runs/r2", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("run after delete status=%d", rr.Code)
	}
}

func TestStatusFor_Busy(t *testing.T) {
	if got := statusFor(fmt.Errorf("%w: d", appingest.ErrBusy)); got != http.StatusConflict {
		t.Fatalf("busy status=%d", got)
	}
	if got := statusFor(context.Canceled); got != 499 {
		t.Fatalf("canceled status=%d", got)
	}
	if got := statusFor(errors.New("x")); got != http.StatusInternalServerError {
		t.Fatalf("default status=%d", got)
	}
}
