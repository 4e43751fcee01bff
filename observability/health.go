package observability

import "context"

// Status is the health of a plugin or of the whole run.
type Status string

const (
	StatusUp       Status = "up"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

var statusRank = map[Status]int{StatusUp: 0, StatusDegraded: 1, StatusDown: 2}

// Health is one plugin's self-reported health.
type Health struct {
	Name    string            `json:"name"`
	Status  Status            `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// HealthChecker is implemented by plugins that can report their health.
type HealthChecker interface {
	CheckHealth(ctx context.Context) Health
}

// Report aggregates plugin health for one run. Its status is the worst
// status of any plugin added.
type Report struct {
	Service   string   `json:"service"`
	Version   string   `json:"version,omitempty"`
	SessionID string   `json:"session_id,omitempty"`
	Status    Status   `json:"status"`
	Plugins   []Health `json:"plugins,omitempty"`
}

// NewReport returns an empty report with status up.
func NewReport(service, version, sessionID string) *Report {
	return &Report{Service: service, Version: version, SessionID: sessionID, Status: StatusUp}
}

// Add records h, lowering the report status when h is worse.
func (r *Report) Add(h Health) {
	r.Plugins = append(r.Plugins, h)
	if statusRank[h.Status] > statusRank[r.Status] {
		r.Status = h.Status
	}
}
