// Package memory keeps the companion's session state: what it has
// said recently and who it knows about.
//
// Memory is organized into two categories:
//   - History: a bounded log of the companion's recent utterances
//   - Entities: known people, pets, and film characters
package memory

import (
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// DefaultHistoryLimit is how many utterances History retains.
const DefaultHistoryLimit = 20

// Utterance is one thing the companion said.
type Utterance struct {
	// Text is what was said.
	Text string `json:"text"`

	// Emotion is the delivery style it was spoken with.
	Emotion string `json:"emotion"`

	// Reason is the short justification recorded for logs.
	Reason string `json:"reason"`

	// SpokenAt is when it was dispatched.
	SpokenAt time.Time `json:"spoken_at"`
}

// Memory is the companion's session state. All data persists to the
// configured Store backend.
type Memory struct {
	mu       sync.RWMutex
	history  []Utterance
	limit    int
	entities map[string]string
	store    Store
}

// memorySnapshot is the serialized form.
type memorySnapshot struct {
	History  []Utterance       `json:"history"`
	Entities map[string]string `json:"entities"`
}

// New creates an in-memory store (no persistence) with the default
// history limit.
func New() *Memory {
	return &Memory{
		limit:    DefaultHistoryLimit,
		entities: make(map[string]string),
	}
}

// NewWithStore creates a memory with a persistence backend. Existing
// data is loaded if available.
func NewWithStore(store Store) *Memory {
	m := New()
	m.store = store
	m.Load()
	return m
}

// NewWithFile creates a memory that persists to a JSON file.
func NewWithFile(path string) *Memory {
	return NewWithStore(NewJSONStore(path))
}

// RecordUtterance appends an utterance, evicting the oldest entry
// once the history limit is reached.
func (m *Memory) RecordUtterance(u Utterance) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.history = append(m.history, u)
	if len(m.history) > m.limit {
		m.history = m.history[len(m.history)-m.limit:]
	}
}

// History returns the retained utterances, oldest first.
func (m *Memory) History() []Utterance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Utterance(nil), m.history...)
}

// RecentTexts returns the text of the last n utterances, oldest
// first. n <= 0 returns everything retained.
func (m *Memory) RecentTexts(n int) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	start := 0
	if n > 0 && len(m.history) > n {
		start = len(m.history) - n
	}
	texts := make([]string, 0, len(m.history)-start)
	for _, u := range m.history[start:] {
		texts = append(texts, u.Text)
	}
	return texts
}

// LastSpokenAt returns when the companion last spoke, or the zero
// time if it has not spoken yet.
func (m *Memory) LastSpokenAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.history) == 0 {
		return time.Time{}
	}
	return m.history[len(m.history)-1].SpokenAt
}

// SetEntity records or updates a known entity.
func (m *Memory) SetEntity(name, description string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entities[name] = description
}

// Entity looks up a known entity.
func (m *Memory) Entity(name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	desc, ok := m.entities[name]
	return desc, ok
}

// Entities returns a copy of all known entities.
func (m *Memory) Entities() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.entities))
	for k, v := range m.entities {
		out[k] = v
	}
	return out
}

// EntityNames returns known entity names in sorted order.
func (m *Memory) EntityNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.entities))
	for name := range m.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear resets all state.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = nil
	m.entities = make(map[string]string)
}

// Save persists memory to the configured store.
func (m *Memory) Save() error {
	if m.store == nil {
		return nil
	}

	m.mu.RLock()
	data, err := json.MarshalIndent(memorySnapshot{
		History:  m.history,
		Entities: m.entities,
	}, "", "  ")
	m.mu.RUnlock()

	if err != nil {
		return err
	}
	return m.store.Save(data)
}

// Load reads memory from the configured store.
func (m *Memory) Load() error {
	if m.store == nil {
		return nil
	}

	data, err := m.store.Load()
	if err != nil {
		return err
	}
	if data == nil {
		return nil
	}

	var snap memorySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if snap.History != nil {
		m.history = snap.History
		if len(m.history) > m.limit {
			m.history = m.history[len(m.history)-m.limit:]
		}
	}
	if snap.Entities != nil {
		m.entities = snap.Entities
	}
	return nil
}

// Close releases resources held by the store.
func (m *Memory) Close() error {
	if m.store == nil {
		return nil
	}
	return m.store.Close()
}

// Stats returns counts of retained items.
func (m *Memory) Stats() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return map[string]int{
		"history":  len(m.history),
		"entities": len(m.entities),
	}
}
