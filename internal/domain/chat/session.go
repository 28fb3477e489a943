// Package chat holds per-session conversation state.
package chat

import (
	"sync"
	"time"

	"github.com/kailas-cloud/tribe/internal/domain/tweaks"
)

// Message is a single chat line.
type Message struct {
	Text   string    `json:"text"`
	IsUser bool      `json:"is_user"`
	At     time.Time `json:"at"`
}

// Session is one user's conversation. The log only grows until Clear.
type Session struct {
	id string

	mu       sync.Mutex
	messages []Message
	tweaks   tweaks.Map
	lastSeen time.Time
	now      func() time.Time
}

// NewSession creates an empty session. base seeds the session's parameter map.
func NewSession(id string, base tweaks.Map) *Session {
	s := &Session{id: id, now: time.Now}
	if base != nil {
		s.tweaks = base.Clone()
	}
	s.lastSeen = s.now()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Append adds a message at the end of the log.
func (s *Session) Append(text string, isUser bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, Message{Text: text, IsUser: isUser, At: s.now()})
	s.lastSeen = s.now()
}

// Clear empties the log. The parameter map is untouched.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.lastSeen = s.now()
}

// RenderInOrder returns a copy of the log, most recent first.
func (s *Session) RenderInOrder() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	for i, m := range s.messages {
		out[len(s.messages)-1-i] = m
	}
	return out
}

// Len returns the number of messages.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// UpdateTweaks runs fn on the session's parameter map under the session lock
// and returns a copy of the result for sending.
func (s *Session) UpdateTweaks(fn func(tweaks.Map) tweaks.Map) tweaks.Map {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tweaks == nil {
		s.tweaks = tweaks.Map{}
	}
	s.tweaks = fn(s.tweaks)
	s.lastSeen = s.now()
	return s.tweaks.Clone()
}

// LastSeen returns the time of the last interaction.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = s.now()
	s.mu.Unlock()
}
