package factsheet

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dd0wney/obsolescence-radar/pkg/validation"
)

// MapApplication normalizes one raw Application record.
func MapApplication(rec Record) (*Application, error) {
	if err := validation.Struct(rec); err != nil {
		return nil, &MappingError{Kind: KindApplication, RecordID: rec.ID, Cause: err}
	}

	children, err := mapRelations(KindApplication, rec.ID, "relToChild", rec.RelToChild)
	if err != nil {
		return nil, err
	}

	var itComponents []RelatedITComponent
	if rec.RelApplicationToITComponent != nil {
		itComponents = make([]RelatedITComponent, 0, len(rec.RelApplicationToITComponent.Edges))
		for _, edge := range rec.RelApplicationToITComponent.Edges {
			rel, err := mapRelatedITComponent(rec.ID, edge.Node)
			if err != nil {
				return nil, err
			}
			itComponents = append(itComponents, rel)
		}
	}

	return &Application{
		FactSheet: FactSheet{
			ID:       rec.ID,
			Name:     rec.Name,
			Level:    rec.Level,
			Children: children,
		},
		ITComponents: nonNil(itComponents),
	}, nil
}

// MapITComponent normalizes one raw IT Component record.
func MapITComponent(rec Record) (*ITComponent, error) {
	if err := validation.Struct(rec); err != nil {
		return nil, &MappingError{Kind: KindITComponent, RecordID: rec.ID, Cause: err}
	}

	children, err := mapRelations(KindITComponent, rec.ID, "relToChild", rec.RelToChild)
	if err != nil {
		return nil, err
	}
	requires, err := mapRelations(KindITComponent, rec.ID, "relToRequires", rec.RelToRequires)
	if err != nil {
		return nil, err
	}

	c := &ITComponent{
		FactSheet: FactSheet{
			ID:       rec.ID,
			Name:     rec.Name,
			Level:    rec.Level,
			Children: children,
		},
		MissingLifecycle: rec.Lifecycle == nil,
		Requires:         requires,
	}

	if rec.Lifecycle != nil {
		if c.EOL, err = phaseStart(rec.Lifecycle, rawPhaseEndOfLife); err != nil {
			return nil, &MappingError{Kind: KindITComponent, RecordID: rec.ID, Field: "lifecycle." + rawPhaseEndOfLife, Cause: err}
		}
		if c.PhaseOut, err = phaseStart(rec.Lifecycle, rawPhasePhaseOut); err != nil {
			return nil, &MappingError{Kind: KindITComponent, RecordID: rec.ID, Field: "lifecycle." + rawPhasePhaseOut, Cause: err}
		}
	}

	return c, nil
}

func mapRelations(kind Kind, ownerID, relation string, conn *RelationConnection) ([]RelatedFactSheet, error) {
	if conn == nil {
		return []RelatedFactSheet{}, nil
	}
	out := make([]RelatedFactSheet, 0, len(conn.Edges))
	for _, edge := range conn.Edges {
		rel, err := mapRelatedFactSheet(edge.Node)
		if err != nil {
			return nil, &MappingError{Kind: kind, RecordID: ownerID, Relation: relation, Cause: err}
		}
		out = append(out, rel)
	}
	return out, nil
}

func mapRelatedFactSheet(node RelationNode) (RelatedFactSheet, error) {
	if err := validation.Struct(node); err != nil {
		return RelatedFactSheet{}, err
	}
	from, err := ParseDate(node.ActiveFrom)
	if err != nil {
		return RelatedFactSheet{}, fmt.Errorf("activeFrom: %w", err)
	}
	until, err := ParseDate(node.ActiveUntil)
	if err != nil {
		return RelatedFactSheet{}, fmt.Errorf("activeUntil: %w", err)
	}
	return RelatedFactSheet{
		ID:          node.ID,
		FactSheetID: node.FactSheet.ID,
		ActiveFrom:  from,
		ActiveUntil: until,
	}, nil
}

func mapRelatedITComponent(ownerID string, node RelationNode) (RelatedITComponent, error) {
	rel, err := mapRelatedFactSheet(node)
	if err != nil {
		return RelatedITComponent{}, &MappingError{
			Kind:     KindApplication,
			RecordID: ownerID,
			Relation: "relApplicationToITComponent",
			Cause:    err,
		}
	}
	status := RiskStatusNone
	if node.ObsolescenceRiskStatus != nil {
		status = RiskStatus(*node.ObsolescenceRiskStatus)
	}
	return RelatedITComponent{RelatedFactSheet: rel, ObsolescenceRiskStatus: status}, nil
}

// phaseStart returns the start date of the named phase, nil if the phase is
// not defined.
func phaseStart(lc *RecordLifecycle, name string) (*int, error) {
	for _, p := range lc.Phases {
		if p.Phase == name {
			return ParseDate(p.StartDate)
		}
	}
	return nil, nil
}

// ParseDate strips date separators and parses the remainder as a YYYYMMDD
// integer. A nil input yields nil.
func ParseDate(s *string) (*int, error) {
	if s == nil {
		return nil, nil
	}
	digits := strings.ReplaceAll(*s, "-", "")
	if digits == "" {
		return nil, errors.New("empty date")
	}
	d, err := strconv.Atoi(digits)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", *s, err)
	}
	return &d, nil
}

// FormatDate renders a YYYYMMDD integer as YYYY-MM-DD.
func FormatDate(d int) string {
	return fmt.Sprintf("%04d-%02d-%02d", d/10000, d/100%100, d%100)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
