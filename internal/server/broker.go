package server

import (
	"encoding/json"
	"sync"

	"github.com/playperu/roadrisk/internal/game"
)

// Session event types.
const (
	EventRound      = "round"
	EventNext       = "next"
	EventReset      = "reset"
	EventDifficulty = "difficulty"
	EventFinished   = "finished"
)

// SSEEvent is the payload published to session subscribers.
type SSEEvent struct {
	Type    string            `json:"type"`
	Session game.View         `json:"session"`
	Result  *game.RoundResult `json:"result,omitempty"`
}

// Broker is an in-process pub/sub for SSE events, keyed by session ID.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for the session.
func (b *Broker) Subscribe(sessionID string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[chan []byte]struct{})
	}
	b.subs[sessionID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(sessionID string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[sessionID], ch)
	if len(b.subs[sessionID]) == 0 {
		delete(b.subs, sessionID)
	}
	b.mu.Unlock()
}

// Subscribers reports how many streams follow the session.
func (b *Broker) Subscribers(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[sessionID])
}

// Publish sends an event to all subscribers of the event's session.
func (b *Broker) Publish(event SSEEvent) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs[event.Session.ID] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}
