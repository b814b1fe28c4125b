package main

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"hrportal/pkg/platform/httputil"
)

type healthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// healthHandler runs every dependency check concurrently and answers 503 if any fails.
func healthHandler(checks map[string]func(context.Context) error) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		report := healthReport{Status: "ok", Checks: make(map[string]string, len(names))}
		var mu sync.Mutex
		var wg sync.WaitGroup
		for _, name := range names {
			wg.Add(1)
			go func(name string, check func(context.Context) error) {
				defer wg.Done()
				result := "ok"
				if err := check(ctx); err != nil {
					result = err.Error()
				}
				mu.Lock()
				report.Checks[name] = result
				if result != "ok" {
					report.Status = "degraded"
				}
				mu.Unlock()
			}(name, checks[name])
		}
		wg.Wait()

		status := http.StatusOK
		if report.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, status, report)
	}
}
