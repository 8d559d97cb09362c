package factsheet

// Kind discriminates the two fact sheet types held by the graph.
type Kind string

const (
	KindApplication Kind = "Application"
	KindITComponent Kind = "ITComponent"
)

// RiskStatus is the organizational acknowledgement attached to an
// Application to IT Component relation.
type RiskStatus string

const (
	RiskStatusNone      RiskStatus = ""
	RiskStatusAccepted  RiskStatus = "riskAccepted"
	RiskStatusAddressed RiskStatus = "riskAddressed"
)

// RelatedFactSheet is one directed relation instance. ID identifies the
// relation occurrence, FactSheetID the other endpoint. Nil bounds are
// unbounded in that direction. Dates are YYYYMMDD integers.
type RelatedFactSheet struct {
	ID          string `json:"id"`
	FactSheetID string `json:"factSheetId"`
	ActiveFrom  *int   `json:"activeFrom"`
	ActiveUntil *int   `json:"activeUntil"`
}

// RelatedITComponent is an Application to IT Component relation.
type RelatedITComponent struct {
	RelatedFactSheet
	ObsolescenceRiskStatus RiskStatus `json:"obsolescenceRiskStatus,omitempty"`
}

// FactSheet holds the fields shared by Applications and IT Components.
type FactSheet struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Level    int                `json:"level"`
	Children []RelatedFactSheet `json:"children"`
}

// Application is a business application fact sheet. The risk fields stay nil
// until the roll-up stage populates them.
type Application struct {
	FactSheet
	ITComponents []RelatedITComponent `json:"itComponents"`

	AggregatedObsolescenceRisk    *Risk  `json:"aggregatedObsolescenceRisk"`
	AggregatedObsolescenceRiskKey string `json:"aggregatedObsolescenceRiskKey,omitempty"`
}

// ITComponent is a technical component fact sheet. EOL and PhaseOut are the
// start dates of those lifecycle phases, nil when the phase is undefined.
// MissingLifecycle is true only when no lifecycle information exists at all.
type ITComponent struct {
	FactSheet
	MissingLifecycle bool               `json:"missingLifecycle"`
	EOL              *int               `json:"eol"`
	PhaseOut         *int               `json:"phaseOut"`
	Requires         []RelatedFactSheet `json:"requires"`

	Lifecycle              *Phase `json:"lifecycle"`
	LifecycleKey           string `json:"lifecycleKey,omitempty"`
	AggregatedLifecycle    *Phase `json:"aggregatedLifecycle"`
	AggregatedLifecycleKey string `json:"aggregatedLifecycleKey,omitempty"`
}

// SetRisk records the roll-up result.
func (a *Application) SetRisk(r Risk) {
	a.AggregatedObsolescenceRisk = &r
	a.AggregatedObsolescenceRiskKey = r.String()
}

// SetLifecycle records the component's own phase.
func (c *ITComponent) SetLifecycle(p Phase) {
	c.Lifecycle = &p
	c.LifecycleKey = p.String()
}

// SetAggregatedLifecycle records the worst phase across the dependency closure.
func (c *ITComponent) SetAggregatedLifecycle(p Phase) {
	c.AggregatedLifecycle = &p
	c.AggregatedLifecycleKey = p.String()
}

// Dependencies returns the union of children and requires relations.
func (c *ITComponent) Dependencies() []RelatedFactSheet {
	deps := make([]RelatedFactSheet, 0, len(c.Children)+len(c.Requires))
	deps = append(deps, c.Children...)
	deps = append(deps, c.Requires...)
	return deps
}

// Date returns a pointer to d, for building relation bounds.
func Date(d int) *int {
	return &d
}
