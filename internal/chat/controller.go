// Package chat owns the assistant conversation for one terminal session.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/TobiSchelling/LitReview/internal/backend"
	"github.com/TobiSchelling/LitReview/internal/logger"
	"github.com/TobiSchelling/LitReview/internal/store"
)

// SessionKey is the session-store key holding the transcript.
const SessionKey = "chat-session"

const (
	PlaceholderText = "Thinking..."
	// NoAnswerSentinel is what the backend answers when it has nothing to say.
	NoAnswerSentinel = "暂无回复。"
	NoAnswerText     = "No answer was produced for this question. Try rephrasing it or widening the year range."
	failurePrefix    = "Reply failed: "
)

var (
	ErrBusy          = errors.New("a question is already being answered")
	ErrEmptyQuestion = errors.New("question is empty")
)

// Asker sends one question to the analysis assistant.
type Asker interface {
	Chat(ctx context.Context, req backend.ChatRequest) (*backend.ChatResponse, error)
}

// Scope narrows the collection a question is asked against.
type Scope struct {
	Topic     string
	StartYear *int
	EndYear   *int
}

// Snapshot is what observers see after every transition.
type Snapshot struct {
	Phase    Phase
	Messages []Message
}

// Controller holds the transcript and drives one exchange at a time.
type Controller struct {
	asker Asker
	store store.Store

	mu        sync.Mutex
	messages  []Message
	phase     Phase
	loaded    bool
	observers []func(Snapshot)
}

// NewController creates a controller persisting to s.
func NewController(asker Asker, s store.Store) *Controller {
	return &Controller{asker: asker, store: s}
}

// Observe registers fn to be called after every state change.
func (c *Controller) Observe(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Load restores the persisted transcript. Only the first call reads the
// store; later calls are no-ops.
func (c *Controller) Load() {
	c.mu.Lock()
	c.loadLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

func (c *Controller) loadLocked() {
	if c.loaded {
		return
	}
	c.loaded = true

	var saved []Message
	if !store.LoadJSON(c.store, SessionKey, &saved) {
		return
	}
	for _, m := range saved {
		if m.Role != RoleSystem {
			c.messages = append(c.messages, m)
		}
	}
	logger.Debug("restored chat session", "messages", len(c.messages))
}

// Messages returns a copy of the transcript.
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

// Phase returns the current exchange phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// NewChat clears the transcript and its persisted copy. It is refused while
// a question is in flight.
func (c *Controller) NewChat() error {
	c.mu.Lock()
	if c.phase != Idle {
		c.mu.Unlock()
		return ErrBusy
	}
	c.loaded = true
	c.messages = nil
	c.store.Remove(SessionKey)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	return nil
}

// Send asks question and appends the exchange to the transcript.
//
// It returns ErrBusy or ErrEmptyQuestion without touching the transcript.
// Otherwise the returned message is the assistant entry that replaced the
// placeholder: the answer, or a failure notice together with the failure.
func (c *Controller) Send(ctx context.Context, question string, scope Scope) (Message, error) {
	question = strings.TrimSpace(question)

	c.mu.Lock()
	if c.phase != Idle {
		c.mu.Unlock()
		return Message{}, ErrBusy
	}
	if question == "" {
		c.mu.Unlock()
		return Message{}, ErrEmptyQuestion
	}
	c.loadLocked()

	placeholder := newMessage(RoleSystem, PlaceholderText, nil)
	c.messages = append(c.messages, newMessage(RoleUser, question, nil), placeholder)
	c.phase = Sending
	c.persistLocked()
	sending := c.snapshotLocked()
	c.phase = Awaiting
	awaiting := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(sending)
	c.notify(awaiting)

	resp, err := c.asker.Chat(ctx, backend.ChatRequest{
		Question:  question,
		Topic:     scope.Topic,
		StartYear: scope.StartYear,
		EndYear:   scope.EndYear,
	})

	var reply Message
	var outcome Phase
	if err != nil {
		logger.Warn("chat request failed", "err", err)
		reply = newMessage(RoleAssistant, failureNotice(err), nil)
		outcome = Failed
	} else {
		reply = newMessage(RoleAssistant, answerText(resp.Answer), resp.ReferencedPaperIDs)
		outcome = Resolved
	}

	c.mu.Lock()
	c.removeLocked(placeholder.ID)
	c.messages = append(c.messages, reply)
	c.phase = outcome
	c.persistLocked()
	settled := c.snapshotLocked()
	c.phase = Idle
	idle := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(settled)
	c.notify(idle)
	return reply, err
}

func answerText(answer string) string {
	a := strings.TrimSpace(answer)
	if a == "" || a == NoAnswerSentinel {
		return NoAnswerText
	}
	return answer
}

func failureNotice(err error) string {
	if errors.Is(err, backend.ErrTimeout) {
		return backend.TimeoutNotice
	}
	return failurePrefix + backend.Describe(err)
}

func (c *Controller) removeLocked(id string) {
	for i, m := range c.messages {
		if m.ID == id {
			c.messages = append(c.messages[:i], c.messages[i+1:]...)
			return
		}
	}
}

// persistLocked writes the transcript without placeholders. An empty
// transcript is never written so it cannot clobber a saved session.
func (c *Controller) persistLocked() {
	durable := make([]Message, 0, len(c.messages))
	for _, m := range c.messages {
		if m.Role != RoleSystem {
			durable = append(durable, m)
		}
	}
	if len(durable) == 0 {
		return
	}
	store.SaveJSON(c.store, SessionKey, durable)
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{Phase: c.phase, Messages: append([]Message(nil), c.messages...)}
}

func (c *Controller) notify(s Snapshot) {
	c.mu.Lock()
	observers := append(([]func(Snapshot))(nil), c.observers...)
	c.mu.Unlock()
	for _, fn := range observers {
		fn(s)
	}
}
