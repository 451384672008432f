package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mohammed-shakir/osm-ingest/internal/core/observability"
)

func scrape(t *testing.T, p *Provider) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	return rr.Body.String()
}

func TestProvider_RegistersStandardCollectors_AndBuildInfo(t *testing.T) {
	p := Init(Config{Build: BuildInfo{Version: "test", Revision: "r", BuildDate: "now"}})

	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_gauge", Help: "smoke"})
	p.Register(g)
	g.Set(42)

	if n := testutil.CollectAndCount(g); n == 0 {
		t.Fatalf("expected at least 1 sample from test_gauge, got %d", n)
	}

	body := scrape(t, p)
	if !strings.Contains(body, "go_goroutines") {
		t.Fatalf("expected go_goroutines in payload; got:\n%s", body)
	}
	if !strings.Contains(body, `osm_ingest_build_info{build_date="now",revision="r",version="test"} 1`) {
		t.Fatalf("expected osm_ingest_build_info in payload; got:\n%s", body)
	}
}

func TestProvider_ExposesIngestCollectors(t *testing.T) {
	p := Init(Config{})
	observability.IncRecord("way")
	observability.IncEvent("after_ways")
	observability.ObserveRun("ok", 0.2)

	body := scrape(t, p)
	for _, want := range []string{
		`ingest_records_total{kind="way"}`,
		`dispatch_events_total{event="after_ways"}`,
		`ingest_run_duration_seconds_bucket{outcome="ok"`,
		`osm_ingest_build_info{build_date="",revision="",version="dev"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %s in payload:\n%s", want, body)
		}
	}
}
