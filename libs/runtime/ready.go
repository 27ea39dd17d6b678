package runtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// ReadyCheck is a named dependency check for /readyz.
type ReadyCheck struct {
	Name  string
	Check func(context.Context) error
}

type readyReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HealthHandler always answers ok while the process is up.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// ReadyHandler runs every check with a short timeout and reports 503 when any
// of them fails.
func ReadyHandler(checks ...ReadyCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := readyReport{Status: "ok", Checks: map[string]string{}}
		code := http.StatusOK
		for _, check := range checks {
			if check.Check == nil {
				continue
			}
			name := check.Name
			if name == "" {
				name = "dependency"
			}
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			err := check.Check(ctx)
			cancel()
			if err != nil {
				report.Checks[name] = err.Error()
				report.Status = "unavailable"
				code = http.StatusServiceUnavailable
				continue
			}
			report.Checks[name] = "ok"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(report)
	}
}
