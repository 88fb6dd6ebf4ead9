package eventbus

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Memory is a synchronous, in-process Bus. The zero value is not usable; use
// NewMemory.
type Memory struct {
	mu   sync.RWMutex
	seq  uint64
	subs map[string][]*subscription
}

type subscription struct {
	bus    *Memory
	name   string
	id     uint64
	h      Handler
	active atomic.Bool
	once   sync.Once
}

// NewMemory returns an empty bus.
func NewMemory() *Memory {
	return &Memory{subs: make(map[string][]*subscription)}
}

// Subscribe registers h for events named name.
func (b *Memory) Subscribe(name string, h Handler) Subscription {
	b.mu.Lock()
	b.seq++
	s := &subscription{bus: b, name: name, id: b.seq, h: h}
	s.active.Store(true)
	b.subs[name] = append(b.subs[name], s)
	b.mu.Unlock()
	subscribersGauge.WithLabelValues(name).Inc()
	return s
}

// Publish delivers payload to every active subscriber of name, in
// subscription order. A panicking handler is logged and skipped.
func (b *Memory) Publish(name string, payload any) {
	b.mu.RLock()
	targets := make([]*subscription, len(b.subs[name]))
	copy(targets, b.subs[name])
	b.mu.RUnlock()

	publishTotal.WithLabelValues(name).Inc()
	e := Event{Name: name, Payload: payload}
	for _, s := range targets {
		if !s.active.Load() {
			continue
		}
		s.deliver(e)
	}
}

// Subscribers reports the number of active subscriptions for name.
func (b *Memory) Subscribers(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[name])
}

func (s *subscription) deliver(e Event) {
	defer func() {
		if r := recover(); r != nil {
			handlerPanicsTotal.WithLabelValues(e.Name).Inc()
			logger.Error().Str("event", e.Name).Str("panic", fmt.Sprint(r)).Msg("event handler panicked")
		}
	}()
	s.h(e)
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.active.Store(false)
		s.bus.remove(s)
		subscribersGauge.WithLabelValues(s.name).Dec()
	})
}

func (b *Memory) remove(s *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.subs[s.name]
	for i, cur := range list {
		if cur.id == s.id {
			b.subs[s.name] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(b.subs[s.name]) == 0 {
		delete(b.subs, s.name)
	}
}
