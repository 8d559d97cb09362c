package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dd0wney/obsolescence-radar/pkg/engine"
	"github.com/dd0wney/obsolescence-radar/pkg/graph"
)

// passOutput is the -json document.
type passOutput struct {
	RunID        string                      `json:"runId"`
	RefDate      int                         `json:"refDate"`
	ComputedAt   time.Time                   `json:"computedAt"`
	Applications []engine.ApplicationRisk    `json:"applications"`
	ITComponents []engine.ComponentLifecycle `json:"itComponents"`
	Edges        []*graph.Edge               `json:"edges"`
}

func writeJSON(w io.Writer, res *engine.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(passOutput{
		RunID:        res.RunID,
		RefDate:      res.RefDate,
		ComputedAt:   res.ComputedAt.UTC(),
		Applications: res.ApplicationRisks(),
		ITComponents: res.ComponentLifecycles(),
		Edges:        res.Graph.SortedEdges(),
	})
}

func writeTable(w io.Writer, res *engine.Result) error {
	fmt.Fprintf(w, "Reference date %d, run %s\n\n", res.RefDate, res.RunID)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "APPLICATION\tNAME\tLEVEL\tRISK")
	for _, a := range res.ApplicationRisks() {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", a.ID, a.Name, a.Level, a.Risk)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "IT COMPONENT\tNAME\tLIFECYCLE\tAGGREGATED")
	for _, c := range res.ComponentLifecycles() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Lifecycle, c.AggregatedLifecycle)
	}
	return tw.Flush()
}
