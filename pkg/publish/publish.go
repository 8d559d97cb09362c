// Package publish broadcasts pass results over an NNG pub socket.
//
// Messages are a topic prefix followed by a JSON body. Subscribers filter
// on TopicResult or TopicError.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pub"

	// Register all transports
	_ "go.nanomsg.org/mangos/v3/transport/all"

	"github.com/dd0wney/obsolescence-radar/pkg/engine"
	"github.com/dd0wney/obsolescence-radar/pkg/logging"
	"github.com/dd0wney/obsolescence-radar/pkg/pubsub"
)

const (
	TopicResult = "RESULT:"
	TopicError  = "ERROR:"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("publish: publisher closed")

// Summary is the body of a result message.
type Summary struct {
	RunID        string            `json:"runId"`
	RefDate      int               `json:"refDate"`
	ComputedAt   time.Time         `json:"computedAt"`
	Applications map[string]string `json:"applications"`
}

// Failure is the body of an error message.
type Failure struct {
	Error string    `json:"error"`
	At    time.Time `json:"at"`
}

// Summarize reduces res to per-Application risk keys.
func Summarize(res *engine.Result) Summary {
	s := Summary{
		RunID:        res.RunID,
		RefDate:      res.RefDate,
		ComputedAt:   res.ComputedAt.UTC(),
		Applications: make(map[string]string),
	}
	for _, a := range res.ApplicationRisks() {
		s.Applications[a.ID] = a.Risk
	}
	return s
}

// Publisher owns a listening pub socket.
type Publisher struct {
	mu     sync.Mutex
	sock   mangos.Socket
	addr   string
	closed bool
	logger logging.Logger
}

// NewPublisher listens on addr (tcp://, ipc:// or inproc://).
func NewPublisher(addr string, logger logging.Logger) (*Publisher, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	sock, err := pub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}
	if err := sock.SetOption(mangos.OptionSendDeadline, time.Second); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to set send deadline: %w", err)
	}
	if err := sock.Listen(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	p := &Publisher{
		sock:   sock,
		addr:   addr,
		logger: logger.With(logging.Component("publish"), logging.String("addr", addr)),
	}
	p.logger.Info("publisher listening")
	return p, nil
}

// Addr returns the listen address.
func (p *Publisher) Addr() string {
	return p.addr
}

// Publish sends the summary of res under TopicResult.
func (p *Publisher) Publish(res *engine.Result) error {
	body, err := json.Marshal(Summarize(res))
	if err != nil {
		return fmt.Errorf("publish: encode result: %w", err)
	}
	if err := p.send(TopicResult, body); err != nil {
		return err
	}
	p.logger.Debug("result published", logging.RunID(res.RunID), logging.Int("bytes", len(body)))
	return nil
}

// PublishError sends cause under TopicError.
func (p *Publisher) PublishError(cause error) error {
	body, err := json.Marshal(Failure{Error: cause.Error(), At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("publish: encode failure: %w", err)
	}
	return p.send(TopicError, body)
}

func (p *Publisher) send(topic string, body []byte) error {
	msg := make([]byte, 0, len(topic)+len(body))
	msg = append(msg, topic...)
	msg = append(msg, body...)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if err := p.sock.Send(msg); err != nil {
		return fmt.Errorf("publish: send: %w", err)
	}
	return nil
}

// Forward relays engine updates from bus until ctx is done or bus shuts
// down, returning nil in the latter case.
func (p *Publisher) Forward(ctx context.Context, bus *pubsub.PubSub[engine.Update]) error {
	results, err := bus.Subscribe(ctx, pubsub.TopicResults)
	if err != nil {
		return err
	}
	defer results.Unsubscribe()
	failures, err := bus.Subscribe(ctx, pubsub.TopicErrors)
	if err != nil {
		return err
	}
	defer failures.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u, ok := <-results.Channel():
			if !ok {
				return ctx.Err()
			}
			if u.Result == nil {
				continue
			}
			if err := p.Publish(u.Result); err != nil {
				p.logger.Warn("failed to publish result", logging.Error(err))
			}
		case u, ok := <-failures.Channel():
			if !ok {
				return ctx.Err()
			}
			if u.Err == nil {
				continue
			}
			if err := p.PublishError(u.Err); err != nil {
				p.logger.Warn("failed to publish error", logging.Error(err))
			}
		}
	}
}

// Close closes the socket. Further sends return ErrClosed.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.sock.Close()
}
