package engine

import (
	"sync"
	"time"

	"github.com/dd0wney/obsolescence-radar/pkg/graph"
	"github.com/dd0wney/obsolescence-radar/pkg/logging"
	"github.com/dd0wney/obsolescence-radar/pkg/pubsub"
)

// Update is published after every pass: Result on pubsub.TopicResults, Err
// on pubsub.TopicErrors.
type Update struct {
	Result *Result
	Err    error
}

// State owns the inventory graph, reference date and visible set, and
// recomputes the published result whenever one of them changes. Changes
// arriving within the debounce interval collapse into a single pass. Passes
// run one at a time and are never cancelled; a pass scheduled while another
// runs starts after it and its result replaces the earlier one.
type State struct {
	engine   *Engine
	bus      *pubsub.PubSub[Update]
	logger   logging.Logger
	debounce time.Duration

	mu      sync.Mutex
	graph   *graph.Graph
	refDate int
	visible map[string]struct{}
	pending bool
	timer   *time.Timer
	closed  bool
	latest  *Result
	lastErr error

	passMu sync.Mutex
}

// NewState creates a state at refDate. bus may be nil when nothing
// subscribes.
func NewState(e *Engine, bus *pubsub.PubSub[Update], logger logging.Logger, debounce time.Duration, refDate int) *State {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &State{
		engine:   e,
		bus:      bus,
		logger:   logger.With(logging.Component("state")),
		debounce: debounce,
		refDate:  refDate,
	}
}

// SetGraph replaces the inventory graph and schedules a pass.
func (s *State) SetGraph(g *graph.Graph) error {
	return s.update(func() { s.graph = g })
}

// SetRefDate changes the reference date and schedules a pass.
func (s *State) SetRefDate(refDate int) error {
	if !ValidRefDate(refDate) {
		return ErrInvalidRefDate
	}
	return s.update(func() { s.refDate = refDate })
}

// SetVisible changes the visible Applications and schedules a pass. Nil
// makes every Application visible, an empty slice none.
func (s *State) SetVisible(ids []string) error {
	set := VisibleSet(ids)
	return s.update(func() { s.visible = set })
}

func (s *State) update(apply func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	apply()
	s.pending = true
	if s.timer == nil {
		s.timer = time.AfterFunc(s.debounce, func() { _ = s.run() })
	} else {
		s.timer.Reset(s.debounce)
	}
	return nil
}

// Flush runs a scheduled pass now instead of waiting for the debounce
// interval. It returns the error of that pass, or nil when nothing was
// pending.
func (s *State) Flush() error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()
	return s.run()
}

// run executes a pass over the current inputs if one is pending.
func (s *State) run() error {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	s.mu.Lock()
	if !s.pending || s.closed {
		s.mu.Unlock()
		return nil
	}
	s.pending = false
	g, refDate, visible := s.graph, s.refDate, s.visible
	s.mu.Unlock()

	if g == nil {
		s.logger.Debug("pass skipped, no graph loaded", logging.RefDate(refDate))
		return nil
	}

	res, err := s.engine.Compute(g, refDate, visible)

	s.mu.Lock()
	if err != nil {
		s.lastErr = err
	} else {
		s.latest = res
		s.lastErr = nil
	}
	s.mu.Unlock()

	if s.bus != nil {
		if err != nil {
			s.bus.Publish(pubsub.TopicErrors, Update{Err: err})
		} else {
			s.bus.Publish(pubsub.TopicResults, Update{Result: res})
		}
	}
	return err
}

// Latest returns the last successfully computed result, or nil.
func (s *State) Latest() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// LastError returns the error of the most recent pass, nil if it succeeded.
func (s *State) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Graph returns the current inventory graph, or nil.
func (s *State) Graph() *graph.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph
}

// RefDate returns the current reference date.
func (s *State) RefDate() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refDate
}

// Engine returns the engine used for passes.
func (s *State) Engine() *Engine {
	return s.engine
}

// Close stops any scheduled pass. A pass already running completes.
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
}
