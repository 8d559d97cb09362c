package main

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/obsolescence-radar/pkg/engine"
	"github.com/dd0wney/obsolescence-radar/pkg/factsheet"
	"github.com/dd0wney/obsolescence-radar/pkg/graph"
	"github.com/dd0wney/obsolescence-radar/pkg/pubsub"
)

func testInventory() *factsheet.Inventory {
	inv := factsheet.NewInventory()
	inv.Applications["app-1"] = &factsheet.Application{
		FactSheet: factsheet.FactSheet{ID: "app-1", Name: "Billing", Level: 1, Children: []factsheet.RelatedFactSheet{}},
		ITComponents: []factsheet.RelatedITComponent{
			{RelatedFactSheet: factsheet.RelatedFactSheet{ID: "u-1", FactSheetID: "itc-1"}},
		},
	}
	inv.Applications["app-2"] = &factsheet.Application{
		FactSheet: factsheet.FactSheet{ID: "app-2", Name: "Invoicing", Level: 1, Children: []factsheet.RelatedFactSheet{}},
		ITComponents: []factsheet.RelatedITComponent{
			{RelatedFactSheet: factsheet.RelatedFactSheet{ID: "u-2", FactSheetID: "itc-2"}},
		},
	}
	inv.ITComponents["itc-1"] = &factsheet.ITComponent{
		FactSheet: factsheet.FactSheet{ID: "itc-1", Name: "Java 8", Level: 1, Children: []factsheet.RelatedFactSheet{}},
		EOL:       factsheet.Date(20200101),
		Requires:  []factsheet.RelatedFactSheet{},
	}
	inv.ITComponents["itc-2"] = &factsheet.ITComponent{
		FactSheet: factsheet.FactSheet{ID: "itc-2", Name: "Go 1.25", Level: 1, Children: []factsheet.RelatedFactSheet{}},
		EOL:       factsheet.Date(20300101),
		Requires:  []factsheet.RelatedFactSheet{},
	}
	return inv
}

// newTestModel uses a debounce long enough that passes only run on Flush.
func newTestModel(t *testing.T, refDate int) (model, *engine.State) {
	t.Helper()
	bus := pubsub.New[engine.Update](pubsub.DefaultBuffer)
	t.Cleanup(bus.Shutdown)
	state := engine.NewState(engine.New(nil, nil), bus, nil, time.Hour, refDate)
	t.Cleanup(state.Close)

	m, err := initialModel(state, bus)
	require.NoError(t, err)
	t.Cleanup(m.unsubscribe)
	return m, state
}

func press(t *testing.T, m model, msg tea.KeyMsg) model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(model)
}

func receive(t *testing.T, sub *pubsub.Subscription[engine.Update]) engine.Update {
	t.Helper()
	select {
	case u := <-sub.Channel():
		return u
	case <-time.After(5 * time.Second):
		t.Fatal("no update received")
		return engine.Update{}
	}
}

func TestModel_ShiftDate(t *testing.T) {
	m, state := newTestModel(t, 20230115)
	assert.Equal(t, time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC), m.refDate)

	steps := []struct {
		key  tea.KeyMsg
		want int
	}{
		{tea.KeyMsg{Type: tea.KeyRight}, 20230215},
		{tea.KeyMsg{Type: tea.KeyShiftRight}, 20240215},
		{tea.KeyMsg{Type: tea.KeyLeft}, 20240115},
		{tea.KeyMsg{Type: tea.KeyShiftLeft}, 20230115},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'l'}}, 20230215},
	}
	for _, s := range steps {
		m = press(t, m, s.key)
		assert.Equal(t, s.want, engine.RefDateOf(m.refDate), s.key.String())
		assert.Equal(t, s.want, state.RefDate(), s.key.String())
		assert.True(t, m.pending)
	}
}

func TestModel_Today(t *testing.T) {
	m, state := newTestModel(t, 20230115)
	m.now = func() time.Time { return time.Date(2026, 10, 14, 15, 30, 0, 0, time.Local) }

	m = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})
	assert.Equal(t, 20261014, state.RefDate())
	assert.Equal(t, time.UTC, m.refDate.Location())
}

func TestModel_ApplyResult(t *testing.T) {
	m, state := newTestModel(t, 20230101)
	require.NoError(t, state.SetGraph(graph.BuildInventory(testInventory())))
	require.NoError(t, state.Flush())

	next, cmd := m.Update(updateMsg(receive(t, m.results)))
	m = next.(model)
	assert.NotNil(t, cmd)
	assert.False(t, m.pending)
	assert.False(t, m.messageErr)

	rows := m.appTable.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "app-1", rows[0][0])
	assert.Equal(t, "unaddressedEndOfLife", rows[0][3])
	assert.Equal(t, "noRisk", rows[1][3])

	comps := m.compTable.Rows()
	require.Len(t, comps, 2)
	assert.Equal(t, "eol", comps[0][2])
	assert.Equal(t, "other", comps[1][2])

	out := m.View()
	assert.Contains(t, out, "Reference date 2023-01-01")
	assert.NotContains(t, out, "(computing)")
	assert.Contains(t, out, "Computed 2 applications and 2 IT components")
}

func TestModel_StaleResultKeepsPending(t *testing.T) {
	m, state := newTestModel(t, 20230101)
	require.NoError(t, state.SetGraph(graph.BuildInventory(testInventory())))
	require.NoError(t, state.Flush())
	u := receive(t, m.results)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	next, _ := m.Update(updateMsg(u))
	m = next.(model)
	assert.True(t, m.pending)
	assert.Contains(t, m.View(), "(computing)")
}

func TestModel_ApplyError(t *testing.T) {
	m, _ := newTestModel(t, 20230101)

	next, cmd := m.Update(updateMsg(engine.Update{Err: errors.New("boom")}))
	m = next.(model)
	assert.NotNil(t, cmd)
	assert.True(t, m.messageErr)
	assert.Equal(t, "Pass failed: boom", m.message)
	assert.Contains(t, m.View(), "Pass failed: boom")
}

func TestModel_ToggleAndQuit(t *testing.T) {
	m, _ := newTestModel(t, 20230101)
	assert.Equal(t, applicationsView, m.currentView)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, componentsView, m.currentView)
	assert.Contains(t, m.View(), "Lifecycle")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, applicationsView, m.currentView)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
