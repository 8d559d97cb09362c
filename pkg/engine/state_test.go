package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/obsolescence-radar/pkg/graph"
	"github.com/dd0wney/obsolescence-radar/pkg/pubsub"
)

func newTestState(t *testing.T, debounce time.Duration) (*State, *pubsub.PubSub[Update]) {
	t.Helper()
	bus := pubsub.New[Update](8)
	s := NewState(New(nil, nil), bus, nil, debounce, 20230101)
	t.Cleanup(func() {
		s.Close()
		bus.Shutdown()
	})
	return s, bus
}

func subscribe(t *testing.T, bus *pubsub.PubSub[Update], topic string) *pubsub.Subscription[Update] {
	t.Helper()
	sub, err := bus.Subscribe(context.Background(), topic)
	require.NoError(t, err)
	return sub
}

func next(t *testing.T, sub *pubsub.Subscription[Update]) Update {
	t.Helper()
	select {
	case u := <-sub.Channel():
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for update")
	}
	return Update{}
}

func TestState_DebounceCollapsesChanges(t *testing.T) {
	s, bus := newTestState(t, 30*time.Millisecond)
	results := subscribe(t, bus, pubsub.TopicResults)

	require.NoError(t, s.SetGraph(inventory()))
	for _, d := range []int{20190101, 20200101, 20210101, 20220101, 20230101} {
		require.NoError(t, s.SetRefDate(d))
	}

	u := next(t, results)
	require.NotNil(t, u.Result)
	assert.Equal(t, 20230101, u.Result.RefDate)

	select {
	case extra := <-results.Channel():
		t.Fatalf("expected one pass, got another at %d", extra.Result.RefDate)
	case <-time.After(150 * time.Millisecond):
	}
	assert.Same(t, u.Result, s.Latest())
}

func TestState_FlushRunsPendingPass(t *testing.T) {
	s, _ := newTestState(t, time.Hour)

	require.NoError(t, s.SetGraph(inventory()))
	require.NoError(t, s.SetVisible([]string{"app-2"}))
	require.NoError(t, s.Flush())

	res := s.Latest()
	require.NotNil(t, res)
	_, ok := res.Graph.Application("app-1")
	assert.False(t, ok)

	// nothing pending
	require.NoError(t, s.Flush())
	assert.Same(t, res, s.Latest())
}

func TestState_SetVisibleEmptyAndNil(t *testing.T) {
	s, _ := newTestState(t, time.Hour)
	require.NoError(t, s.SetGraph(inventory()))

	require.NoError(t, s.SetVisible([]string{}))
	require.NoError(t, s.Flush())
	assert.Empty(t, s.Latest().Graph.Applications())

	require.NoError(t, s.SetVisible(nil))
	require.NoError(t, s.Flush())
	_, ok := s.Latest().Graph.Application("app-1")
	assert.True(t, ok)
}

func TestState_FailedPassKeepsPreviousResult(t *testing.T) {
	s, bus := newTestState(t, time.Hour)
	errs := subscribe(t, bus, pubsub.TopicErrors)

	require.NoError(t, s.SetGraph(inventory()))
	require.NoError(t, s.Flush())
	good := s.Latest()
	require.NotNil(t, good)

	broken := inventory()
	delete(broken.Nodes, "itc-2")
	require.NoError(t, s.SetGraph(broken))
	err := s.Flush()
	require.ErrorIs(t, err, graph.ErrDanglingEdge)

	u := next(t, errs)
	assert.ErrorIs(t, u.Err, graph.ErrDanglingEdge)
	assert.Same(t, good, s.Latest())
	assert.ErrorIs(t, s.LastError(), graph.ErrDanglingEdge)

	require.NoError(t, s.SetGraph(inventory()))
	require.NoError(t, s.Flush())
	assert.NoError(t, s.LastError())
}

func TestState_NoGraphSkipsPass(t *testing.T) {
	s, _ := newTestState(t, time.Hour)
	require.NoError(t, s.SetRefDate(20240101))
	require.NoError(t, s.Flush())
	assert.Nil(t, s.Latest())
	assert.Equal(t, 20240101, s.RefDate())
}

func TestState_RejectsInvalidDateAndClosed(t *testing.T) {
	s, _ := newTestState(t, time.Hour)
	assert.ErrorIs(t, s.SetRefDate(20230230), ErrInvalidRefDate)

	s.Close()
	assert.ErrorIs(t, s.SetGraph(inventory()), ErrClosed)
	assert.NoError(t, s.Flush())
}
