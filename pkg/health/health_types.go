package health

import (
	"sync"
	"time"
)

// Status is the health of the radar or of one part of it.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

var statusRank = map[Status]int{
	StatusHealthy:   0,
	StatusDegraded:  1,
	StatusUnhealthy: 2,
}

// worse returns the more severe of s and o.
func (s Status) worse(o Status) Status {
	if statusRank[o] > statusRank[s] {
		return o
	}
	return s
}

// InventoryState describes the inventory graph held by the engine state.
type InventoryState struct {
	Loaded       bool
	Applications int
	ITComponents int
}

// EngineState describes the latest published pass and the outcome of the
// most recent one.
type EngineState struct {
	HasResult  bool
	RunID      string
	RefDate    int
	ComputedAt time.Time
	LastError  error
}

// InventoryReport is the inventory section of a report.
type InventoryReport struct {
	Status       Status `json:"status"`
	Message      string `json:"message"`
	Applications int    `json:"applications"`
	ITComponents int    `json:"it_components"`
}

// EngineReport is the engine section of a report. The run fields describe
// the result currently served, which may predate LastError.
type EngineReport struct {
	Status     Status     `json:"status"`
	Message    string     `json:"message"`
	RunID      string     `json:"run_id,omitempty"`
	RefDate    int        `json:"ref_date,omitempty"`
	ComputedAt *time.Time `json:"computed_at,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
}

// Probe is the outcome of checking one external dependency.
type Probe struct {
	Status    Status  `json:"status"`
	Message   string  `json:"message,omitempty"`
	LatencyMS float64 `json:"latency_ms"`
}

// ProbeFunc checks one external dependency.
type ProbeFunc func() Probe

// Report is the body of every health endpoint. Sections an endpoint does not
// evaluate are omitted.
type Report struct {
	Status    Status           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    float64          `json:"uptime_seconds"`
	Inventory *InventoryReport `json:"inventory,omitempty"`
	Engine    *EngineReport    `json:"engine,omitempty"`
	Probes    map[string]Probe `json:"probes,omitempty"`
}

// Checker builds reports from the radar's inventory and engine state and
// from probes of external dependencies.
type Checker struct {
	inventory func() InventoryState
	engine    func() EngineState
	started   time.Time
	now       func() time.Time

	mu    sync.RWMutex
	ready map[string]ProbeFunc
	live  map[string]ProbeFunc
}
