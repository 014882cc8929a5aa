package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// HealthChecker reports the state of the service and its dependencies.
type HealthChecker interface {
	Check(ctx context.Context) *HealthStatus
}

type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]Status `json:"services,omitempty"`
	Version   string            `json:"version,omitempty"`
}

type Status struct {
	Status  string `json:"status"`
	Details string `json:"details,omitempty"`
}

// CheckFunc probes one dependency.
type CheckFunc func(ctx context.Context) error

// DependencyChecker runs named dependency probes concurrently.
type DependencyChecker struct {
	version string
	timeout time.Duration

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

func NewDependencyChecker(version string, timeout time.Duration) *DependencyChecker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &DependencyChecker{
		version: version,
		timeout: timeout,
		checks:  make(map[string]CheckFunc),
	}
}

// Register adds or replaces a probe.
func (d *DependencyChecker) Register(name string, check CheckFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.checks[name] = check
}

func (d *DependencyChecker) names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.checks))
	for name := range d.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d *DependencyChecker) Check(ctx context.Context) *HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	names := d.names()
	results := make([]Status, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		d.mu.RLock()
		check := d.checks[name]
		d.mu.RUnlock()

		wg.Add(1)
		go func(i int, check CheckFunc) {
			defer wg.Done()
			if err := check(ctx); err != nil {
				results[i] = Status{Status: StatusUnhealthy, Details: err.Error()}
				return
			}
			results[i] = Status{Status: StatusHealthy}
		}(i, check)
	}
	wg.Wait()

	status := &HealthStatus{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC(),
		Version:   d.version,
		Services:  make(map[string]Status, len(names)),
	}
	for i, name := range names {
		status.Services[name] = results[i]
		if results[i].Status != StatusHealthy {
			status.Status = StatusUnhealthy
		}
	}

	return status
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// Handler reports the full dependency status; 503 when any dependency is down.
func Handler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := checker.Check(r.Context())
		code := http.StatusOK
		if status.Status != StatusHealthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, status)
	}
}

// ReadyHandler returns 200 only when every dependency is healthy.
func ReadyHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker.Check(r.Context()).Status != StatusHealthy {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// LiveHandler returns 200 while the process is serving.
func LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
	}
}
