package chatview

import (
	"context"
	"strings"
	"sync"

	"contextchat/internal/models"
)

// FallbackReply is shown in place of an answer when the gateway call fails.
const FallbackReply = "Sorry, I encountered an error."

// Gateway sends one prompt to the chat endpoint and returns the answer text.
type Gateway interface {
	Chat(ctx context.Context, req models.PromptRequest) (string, error)
}

// Conversation holds the ephemeral state of one chat session: the ordered
// turns, the draft being composed, the context block and the in-flight flag.
// At most one request is outstanding at a time.
type Conversation struct {
	mu       sync.Mutex
	turns    []models.ChatTurn
	draft    string
	context  string
	inFlight bool
	onChange []func()
}

func NewConversation() *Conversation {
	return &Conversation{}
}

// OnChange registers fn to run after every change to the turn sequence.
func (c *Conversation) OnChange(fn func()) {
	c.mu.Lock()
	c.onChange = append(c.onChange, fn)
	c.mu.Unlock()
}

func (c *Conversation) SetContext(s string) {
	c.mu.Lock()
	c.context = s
	c.mu.Unlock()
}

// SetDraft updates the pending message. Ignored while a request is in flight.
func (c *Conversation) SetDraft(s string) {
	c.mu.Lock()
	if !c.inFlight {
		c.draft = s
	}
	c.mu.Unlock()
}

// Begin starts a submit cycle. It returns false without side effects when the
// trimmed draft is empty or a request is already in flight. Otherwise the user
// turn is appended, the in-flight flag is set, and the request to send is
// returned.
func (c *Conversation) Begin() (models.PromptRequest, bool) {
	c.mu.Lock()
	if c.inFlight || strings.TrimSpace(c.draft) == "" {
		c.mu.Unlock()
		return models.PromptRequest{}, false
	}

	c.turns = append(c.turns, models.ChatTurn{Type: models.TurnUser, Content: c.draft})
	c.inFlight = true
	req := models.PromptRequest{Message: c.draft, Context: c.context}
	c.mu.Unlock()

	c.notify()
	return req, true
}

// Resolve completes the outstanding submit cycle with exactly one bot turn,
// clears the in-flight flag and the draft. The context is kept. It returns
// false when nothing was in flight.
func (c *Conversation) Resolve(reply string, err error) bool {
	c.mu.Lock()
	if !c.inFlight {
		c.mu.Unlock()
		return false
	}

	content := reply
	if err != nil {
		content = FallbackReply
	}
	c.turns = append(c.turns, models.ChatTurn{Type: models.TurnBot, Content: content})
	c.inFlight = false
	c.draft = ""
	c.mu.Unlock()

	c.notify()
	return true
}

// Submit runs a full cycle against gw. It reports whether a request was sent.
func (c *Conversation) Submit(ctx context.Context, gw Gateway) bool {
	req, ok := c.Begin()
	if !ok {
		return false
	}
	reply, err := gw.Chat(ctx, req)
	c.Resolve(reply, err)
	return true
}

// Clear drops every turn. The context field is untouched.
func (c *Conversation) Clear() {
	c.mu.Lock()
	c.turns = nil
	c.mu.Unlock()

	c.notify()
}

// Turns returns a copy of the turn sequence in display order.
func (c *Conversation) Turns() []models.ChatTurn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.ChatTurn, len(c.turns))
	copy(out, c.turns)
	return out
}

// LastReply returns the newest bot turn, if any.
func (c *Conversation) LastReply() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.turns) - 1; i >= 0; i-- {
		if c.turns[i].Type == models.TurnBot {
			return c.turns[i].Content, true
		}
	}
	return "", false
}

func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.turns)
}

func (c *Conversation) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

func (c *Conversation) Context() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.context
}

func (c *Conversation) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

func (c *Conversation) notify() {
	c.mu.Lock()
	observers := append([]func(){}, c.onChange...)
	c.mu.Unlock()

	for _, fn := range observers {
		fn()
	}
}
