package runtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// ReadyCheck is a named dependency check for /readyz.
type ReadyCheck struct {
	Name string
	// Optional checks report failures without failing readiness (cache, broker).
	Optional bool
	Check    func(context.Context) error
}

type readyReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func NewBaseMuxWithReady(checks ...ReadyCheck) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		report, ok := runChecks(r.Context(), checks)
		w.Header().Set("Content-Type", "application/json")
		if !ok {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(report)
	})
	return mux
}

func runChecks(ctx context.Context, checks []ReadyCheck) (readyReport, bool) {
	report := readyReport{Status: "ok", Checks: map[string]string{}}
	ok := true
	for _, check := range checks {
		if check.Check == nil {
			continue
		}
		name := check.Name
		if name == "" {
			name = "dependency"
		}
		checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := check.Check(checkCtx)
		cancel()
		if err == nil {
			report.Checks[name] = "ok"
			continue
		}
		report.Checks[name] = err.Error()
		if !check.Optional {
			ok = false
		}
	}
	if !ok {
		report.Status = "unavailable"
	} else if len(report.Checks) == 0 {
		report.Checks = nil
	}
	return report, ok
}
