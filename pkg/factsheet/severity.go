package factsheet

import "fmt"

// Phase is the lifecycle phase of an IT Component at a reference date.
// Lower ordinals are more severe.
type Phase int

const (
	PhaseUndefined Phase = iota
	PhaseEOL
	PhasePhaseOut
	PhaseOther
)

var phaseKeys = [...]string{
	PhaseUndefined: "undefined",
	PhaseEOL:       "eol",
	PhasePhaseOut:  "phaseOut",
	PhaseOther:     "other",
}

// String returns the phase key.
func (p Phase) String() string {
	if p < PhaseUndefined || p > PhaseOther {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseKeys[p]
}

// Valid reports whether p is one of the defined phases.
func (p Phase) Valid() bool {
	return p >= PhaseUndefined && p <= PhaseOther
}

// WorsePhase returns the more severe of a and b.
func WorsePhase(a, b Phase) Phase {
	if b < a {
		return b
	}
	return a
}

// Risk is the aggregated obsolescence risk of an Application.
// Lower ordinals are more severe.
type Risk int

const (
	RiskMissingITComponent Risk = iota
	RiskMissingLifecycle
	RiskUnaddressedEndOfLife
	RiskUnaddressedPhaseOut
	RiskAccepted
	RiskAddressed
	RiskNone
)

var riskKeys = [...]string{
	RiskMissingITComponent:   "missingITComponent",
	RiskMissingLifecycle:     "missingLifecycle",
	RiskUnaddressedEndOfLife: "unaddressedEndOfLife",
	RiskUnaddressedPhaseOut:  "unaddressedPhaseOut",
	RiskAccepted:             "riskAccepted",
	RiskAddressed:            "riskAddressed",
	RiskNone:                 "noRisk",
}

// String returns the risk key.
func (r Risk) String() string {
	if r < RiskMissingITComponent || r > RiskNone {
		return fmt.Sprintf("Risk(%d)", int(r))
	}
	return riskKeys[r]
}

// AllRisks lists every risk from most to least severe.
func AllRisks() []Risk {
	return []Risk{
		RiskMissingITComponent,
		RiskMissingLifecycle,
		RiskUnaddressedEndOfLife,
		RiskUnaddressedPhaseOut,
		RiskAccepted,
		RiskAddressed,
		RiskNone,
	}
}

// WorseRisk returns the more severe of a and b.
func WorseRisk(a, b Risk) Risk {
	if b < a {
		return b
	}
	return a
}
