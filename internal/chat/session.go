package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/apexathon/careerdash/internal/metrics"
	"github.com/apexathon/careerdash/internal/profile"
)

// ErrBusy is returned by Send while a previous send is still waiting for its
// reply.
var ErrBusy = errors.New("chat: a message is already in flight")

const (
	Greeting    = "Hello! I can help you with career advice and job search guidance. How can I assist you today?"
	Placeholder = "Thinking..."
	Apology     = "Sorry, I encountered an error. Please try again."
)

// Role tags a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript entry. IsLoading marks the placeholder that
// stands in for a pending reply.
type Message struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	IsLoading bool   `json:"isLoading,omitempty"`
}

// Completer sends a prompt to a language model and returns its raw reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ProfileSource supplies the current profile for prompt enrichment.
type ProfileSource interface {
	Current() (profile.Profile, bool, error)
}

// Session is an in-memory chat transcript. Sends are serialized: only one
// may wait for a reply at a time.
type Session struct {
	completer Completer
	profiles  ProfileSource
	logger    *slog.Logger

	mu         sync.Mutex
	transcript []Message
	inFlight   bool
}

// NewSession creates a Session seeded with the greeting. profiles may be nil.
func NewSession(completer Completer, profiles ProfileSource) *Session {
	return &Session{
		completer:  completer,
		profiles:   profiles,
		logger:     slog.Default(),
		transcript: []Message{{Role: RoleAssistant, Content: Greeting}},
	}
}

// Send appends text as a user message and waits for the assistant reply.
// Whitespace-only text is ignored. Remote failures are reported in the
// transcript as the apology message, not as an error.
func (s *Session) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		metrics.ChatSends.WithLabelValues("busy").Inc()
		return ErrBusy
	}
	s.inFlight = true
	s.transcript = append(s.transcript,
		Message{Role: RoleUser, Content: text},
		Message{Role: RoleAssistant, Content: Placeholder, IsLoading: true},
	)
	s.mu.Unlock()

	prompt := BuildPrompt(s.promptContext(), text)

	reply := Apology
	raw, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		s.logger.Warn("chat completion failed", "error", err)
		metrics.ChatSends.WithLabelValues("error").Inc()
	} else {
		reply = Normalize(raw)
		metrics.ChatSends.WithLabelValues("ok").Inc()
	}

	s.mu.Lock()
	s.transcript[len(s.transcript)-1] = Message{Role: RoleAssistant, Content: reply}
	s.inFlight = false
	s.mu.Unlock()
	return nil
}

// Busy reports whether a send is waiting for its reply.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Transcript returns a copy of the messages so far.
func (s *Session) Transcript() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.transcript))
	copy(out, s.transcript)
	return out
}

func (s *Session) promptContext() PromptContext {
	if s.profiles == nil {
		return PromptContext{}
	}
	p, ok, err := s.profiles.Current()
	if err != nil {
		s.logger.Warn("loading profile for chat", "error", err)
		return PromptContext{}
	}
	if !ok {
		return PromptContext{}
	}
	return ContextFromProfile(p)
}
