// Package health serves liveness and readiness checks.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	}
}

// Check tests one dependency.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// Readiness runs every check with a shared timeout and reports 503 when
// any of them fails.
func Readiness(timeout time.Duration, checks ...Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type resp struct {
			Status string            `json:"status"`
			Failed map[string]string `json:"failed,omitempty"`
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		out := resp{Status: "ready"}
		for _, c := range checks {
			if err := c.Probe(ctx); err != nil {
				if out.Failed == nil {
					out.Failed = map[string]string{}
				}
				out.Failed[c.Name] = err.Error()
			}
		}
		w.Header().Set("Content-Type", "application/json")
		if len(out.Failed) > 0 {
			out.Status = "not_ready"
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}
