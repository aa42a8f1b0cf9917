package service

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/forgo/campusfeed/internal/model"
)

const (
	// DefaultChatHistory is how many messages the ring keeps
	DefaultChatHistory = 50

	// DefaultChatBuffer is each subscriber's queue depth
	DefaultChatBuffer = 64

	// MaxChatMessageRunes caps a single message
	MaxChatMessageRunes = 2000
)

// ChatSubscriber is a connected chat client. Messages is closed when the
// subscriber is removed, either by Unsubscribe, by falling behind, or by
// Close.
type ChatSubscriber struct {
	ID       string
	Messages chan model.ChatMessage
	Done     chan struct{}
}

// ChatBroadcaster keeps the most recent messages in a ring and fans new
// messages out to every subscriber in arrival order. One mutex guards
// the ring and the subscriber set, so a snapshot and a registration
// taken together never miss or repeat a message.
type ChatBroadcaster struct {
	mu          sync.Mutex
	ring        []model.ChatMessage
	start       int // index of the oldest message
	count       int
	subscribers map[string]*ChatSubscriber
	buffer      int
	closed      bool
	now         func() time.Time
}

// NewChatBroadcaster creates a broadcaster holding up to capacity messages
func NewChatBroadcaster(capacity, buffer int) *ChatBroadcaster {
	if capacity <= 0 {
		capacity = DefaultChatHistory
	}
	if buffer <= 0 {
		buffer = DefaultChatBuffer
	}
	return &ChatBroadcaster{
		ring:        make([]model.ChatMessage, capacity),
		subscribers: make(map[string]*ChatSubscriber),
		buffer:      buffer,
		now:         time.Now,
	}
}

// Subscribe registers a new subscriber and returns the history as of the
// moment of registration. Every message posted afterwards is delivered on
// the subscriber's channel.
func (b *ChatBroadcaster) Subscribe() ([]model.ChatMessage, *ChatSubscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &ChatSubscriber{
		ID:       uuid.NewString(),
		Messages: make(chan model.ChatMessage, b.buffer),
		Done:     make(chan struct{}),
	}

	if b.closed {
		close(sub.Done)
		close(sub.Messages)
		return b.snapshotLocked(), sub
	}

	b.subscribers[sub.ID] = sub
	return b.snapshotLocked(), sub
}

// Unsubscribe removes a subscriber. Safe to call more than once.
func (b *ChatBroadcaster) Unsubscribe(sub *ChatSubscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.removeLocked(sub.ID)
}

// Post stamps text with the arrival time, appends it to the ring and
// queues it for every subscriber. Blank text is ignored and reported with
// ok == false. A subscriber whose queue is full is dropped rather than
// skipped, so connected subscribers never see gaps.
func (b *ChatBroadcaster) Post(text string) (msg model.ChatMessage, ok bool) {
	if strings.TrimSpace(text) == "" {
		return model.ChatMessage{}, false
	}
	if utf8.RuneCountInString(text) > MaxChatMessageRunes {
		text = string([]rune(text)[:MaxChatMessageRunes])
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	msg = model.ChatMessage{Text: text, Time: b.now().UTC()}

	capacity := len(b.ring)
	if b.count < capacity {
		b.ring[(b.start+b.count)%capacity] = msg
		b.count++
	} else {
		b.ring[b.start] = msg
		b.start = (b.start + 1) % capacity
	}

	for id, sub := range b.subscribers {
		select {
		case sub.Messages <- msg:
		default:
			b.removeLocked(id)
		}
	}

	return msg, true
}

// History returns a copy of the ring, oldest first
func (b *ChatBroadcaster) History() []model.ChatMessage {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.snapshotLocked()
}

// SubscriberCount returns the number of connected subscribers
func (b *ChatBroadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.subscribers)
}

// Close removes every subscriber. Later subscribers are closed on arrival.
func (b *ChatBroadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for id := range b.subscribers {
		b.removeLocked(id)
	}
}

func (b *ChatBroadcaster) snapshotLocked() []model.ChatMessage {
	out := make([]model.ChatMessage, b.count)
	capacity := len(b.ring)
	for i := 0; i < b.count; i++ {
		out[i] = b.ring[(b.start+i)%capacity]
	}
	return out
}

func (b *ChatBroadcaster) removeLocked(id string) {
	sub, ok := b.subscribers[id]
	if !ok {
		return
	}
	close(sub.Done)
	close(sub.Messages)
	delete(b.subscribers, id)
}
