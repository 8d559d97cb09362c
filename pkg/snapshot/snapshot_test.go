package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/obsolescence-radar/pkg/factsheet"
)

func sampleInventory() *factsheet.Inventory {
	inv := factsheet.NewInventory()
	inv.RetrievedAt = time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)
	inv.Applications["app-1"] = &factsheet.Application{
		FactSheet: factsheet.FactSheet{ID: "app-1", Name: "CRM", Level: 1, Children: []factsheet.RelatedFactSheet{}},
		ITComponents: []factsheet.RelatedITComponent{{
			RelatedFactSheet:       factsheet.RelatedFactSheet{ID: "r1", FactSheetID: "itc-1", ActiveUntil: factsheet.Date(20251231)},
			ObsolescenceRiskStatus: factsheet.RiskStatusAccepted,
		}},
	}
	inv.ITComponents["itc-1"] = &factsheet.ITComponent{
		FactSheet: factsheet.FactSheet{ID: "itc-1", Name: "Postgres 9", Level: 1, Children: []factsheet.RelatedFactSheet{}},
		EOL:       factsheet.Date(20211111),
		Requires:  []factsheet.RelatedFactSheet{},
	}
	return inv
}

func TestSaveLoad(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nested"), nil)
	inv := sampleInventory()

	require.NoError(t, store.Save(inv))
	got, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, inv, got)
	assert.Nil(t, got.ITComponents["itc-1"].AggregatedLifecycle)
}

func TestSave_Replaces(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	require.NoError(t, store.Save(sampleInventory()))

	smaller := factsheet.NewInventory()
	require.NoError(t, store.Save(smaller))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, got.Applications)

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestLoad_NoSnapshot(t *testing.T) {
	_, err := NewStore(t.TempDir(), nil).Load()
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestLoad_Corrupt(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	require.NoError(t, store.Save(sampleInventory()))
	original, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"short", func(b []byte) []byte { return b[:5] }},
		{"magic", func(b []byte) []byte { b[0] = 'X'; return b }},
		{"version", func(b []byte) []byte { b[4] = 9; return b }},
		{"truncated payload", func(b []byte) []byte { return b[:len(b)-1] }},
		{"flipped payload byte", func(b []byte) []byte { b[len(b)-1] ^= 0xff; return b }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.mutate(append([]byte(nil), original...))
			require.NoError(t, os.WriteFile(store.Path(), data, 0o644))
			_, err := store.Load()
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}
