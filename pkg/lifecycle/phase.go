// Package lifecycle resolves IT Component lifecycle phases at a reference
// date, both for each component alone and across its transitive
// dependency closure.
package lifecycle

import (
	"github.com/dd0wney/obsolescence-radar/pkg/factsheet"
)

// OwnPhase returns the phase a component is in at refDate, ignoring its
// dependencies. A phase whose start date equals refDate has not been entered yet.
func OwnPhase(c *factsheet.ITComponent, refDate int) factsheet.Phase {
	switch {
	case c.MissingLifecycle:
		return factsheet.PhaseUndefined
	case c.EOL != nil && *c.EOL < refDate:
		return factsheet.PhaseEOL
	case c.PhaseOut != nil && *c.PhaseOut < refDate:
		return factsheet.PhasePhaseOut
	default:
		return factsheet.PhaseOther
	}
}
