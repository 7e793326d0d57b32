// Package session keeps per-conversation history and scratch state in
// memory. Sessions are created on first use and live for the process
// lifetime.
package session

import (
	"sync"

	"github.com/aabdoo23/Protomatic/internal/model"
)

type Message struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

type entry struct {
	history []Message
	state   map[string]any
}

type Memory struct {
	mu       sync.Mutex
	sessions map[string]*entry
}

func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]*entry)}
}

func (m *Memory) session(sessionID string) *entry {
	s, ok := m.sessions[sessionID]
	if !ok {
		s = &entry{state: make(map[string]any)}
		m.sessions[sessionID] = s
	}
	return s
}

func (m *Memory) AddMessage(sessionID, role, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(sessionID)
	s.history = append(s.history, Message{Role: role, Message: message})
}

func (m *Memory) History(sessionID string) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(sessionID)
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}

func (m *Memory) UpdateState(sessionID, key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session(sessionID).state[key] = value
}

func (m *Memory) State(sessionID string) map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return model.CopyMap(m.session(sessionID).state)
}
