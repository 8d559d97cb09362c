package factsheet

// The raw shapes below mirror the workspace GraphQL `allFactSheets` node
// fields the queries select. Only documented fields are decoded.

// Record is one raw fact sheet node.
type Record struct {
	ID                          string              `json:"id" validate:"required"`
	Name                        string              `json:"name"`
	Level                       int                 `json:"level"`
	Lifecycle                   *RecordLifecycle    `json:"lifecycle"`
	RelToChild                  *RelationConnection `json:"relToChild"`
	RelToRequires               *RelationConnection `json:"relToRequires"`
	RelApplicationToITComponent *RelationConnection `json:"relApplicationToITComponent"`
}

// RecordLifecycle is the lifecycle attribute of a fact sheet.
type RecordLifecycle struct {
	Phases []RecordPhase `json:"phases"`
}

// RecordPhase is one lifecycle phase with its start date.
type RecordPhase struct {
	Phase     string  `json:"phase"`
	StartDate *string `json:"startDate"`
}

// RelationConnection is a GraphQL connection of relation edges.
type RelationConnection struct {
	Edges []RelationEdge `json:"edges"`
}

// RelationEdge wraps one relation node.
type RelationEdge struct {
	Node RelationNode `json:"node"`
}

// RelationNode is one raw relation record.
type RelationNode struct {
	ID                     string        `json:"id" validate:"required"`
	ActiveFrom             *string       `json:"activeFrom" validate:"omitempty,isodate"`
	ActiveUntil            *string       `json:"activeUntil" validate:"omitempty,isodate"`
	ObsolescenceRiskStatus *string       `json:"obsolescenceRiskStatus" validate:"omitempty,oneof=riskAccepted riskAddressed"`
	FactSheet              *FactSheetRef `json:"factSheet" validate:"required"`
}

// FactSheetRef is the other endpoint of a relation.
type FactSheetRef struct {
	ID string `json:"id" validate:"required"`
}

// Lifecycle phase names in raw records.
const (
	rawPhaseEndOfLife = "endOfLife"
	rawPhasePhaseOut  = "phaseOut"
)
