package health

import (
	"fmt"
	"time"
)

// NewChecker creates a checker over the given state accessors.
func NewChecker(inventory func() InventoryState, engine func() EngineState) *Checker {
	return &Checker{
		inventory: inventory,
		engine:    engine,
		started:   time.Now(),
		now:       time.Now,
		ready:     make(map[string]ProbeFunc),
		live:      make(map[string]ProbeFunc),
	}
}

// AddReadinessProbe adds a dependency that must be reachable to serve.
func (c *Checker) AddReadinessProbe(name string, probe ProbeFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready[name] = probe
}

// AddLivenessProbe adds a check of the process itself.
func (c *Checker) AddLivenessProbe(name string, probe ProbeFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.live[name] = probe
}

// Ready reports the inventory, the engine and the readiness probes.
func (c *Checker) Ready() Report {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.report(true, c.ready)
}

// Live reports the liveness probes only.
func (c *Checker) Live() Report {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.report(false, c.live)
}

// Full reports the inventory, the engine and every probe.
func (c *Checker) Full() Report {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.report(true, c.ready, c.live)
}

func (c *Checker) report(withState bool, probeSets ...map[string]ProbeFunc) Report {
	now := c.now()
	r := Report{
		Status:    StatusHealthy,
		Timestamp: now,
		Uptime:    now.Sub(c.started).Seconds(),
	}

	if withState {
		inv := InventoryReportOf(c.inventory())
		eng := EngineReportOf(c.engine())
		r.Inventory = &inv
		r.Engine = &eng
		r.Status = r.Status.worse(inv.Status).worse(eng.Status)
	}

	for _, probes := range probeSets {
		for name, probe := range probes {
			start := time.Now()
			p := probe()
			p.LatencyMS = float64(time.Since(start).Microseconds()) / 1000
			if r.Probes == nil {
				r.Probes = make(map[string]Probe)
			}
			r.Probes[name] = p
			r.Status = r.Status.worse(p.Status)
		}
	}
	return r
}

// InventoryReportOf is unhealthy until an inventory graph is loaded.
func InventoryReportOf(s InventoryState) InventoryReport {
	r := InventoryReport{
		Status:       StatusHealthy,
		Message:      fmt.Sprintf("%d applications, %d IT components", s.Applications, s.ITComponents),
		Applications: s.Applications,
		ITComponents: s.ITComponents,
	}
	if !s.Loaded {
		r.Status = StatusUnhealthy
		r.Message = "No inventory loaded"
	}
	return r
}

// EngineReportOf is unhealthy until a result is published and degraded
// while the previous result is served after a failed pass.
func EngineReportOf(s EngineState) EngineReport {
	var r EngineReport
	if s.HasResult {
		computed := s.ComputedAt
		r.RunID = s.RunID
		r.RefDate = s.RefDate
		r.ComputedAt = &computed
	}
	if s.LastError != nil {
		r.LastError = s.LastError.Error()
	}

	switch {
	case !s.HasResult && s.LastError != nil:
		r.Status = StatusUnhealthy
		r.Message = "No result, last pass failed"
	case !s.HasResult:
		r.Status = StatusUnhealthy
		r.Message = "No result published yet"
	case s.LastError != nil:
		r.Status = StatusDegraded
		r.Message = "Last pass failed, serving previous result"
	default:
		r.Status = StatusHealthy
		r.Message = "Serving latest result"
	}
	return r
}
