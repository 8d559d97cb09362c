package factsheet

import "time"

// Inventory is the complete, id-indexed set of fact sheets retrieved from a
// workspace.
type Inventory struct {
	Applications map[string]*Application `json:"applications"`
	ITComponents map[string]*ITComponent `json:"itComponents"`
	RetrievedAt  time.Time               `json:"retrievedAt"`
}

// NewInventory creates an empty inventory.
func NewInventory() *Inventory {
	return &Inventory{
		Applications: make(map[string]*Application),
		ITComponents: make(map[string]*ITComponent),
	}
}
