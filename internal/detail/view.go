// Package detail provides the view-models behind the blog and entry detail
// pages. A view-model holds the entity it was opened with, replaces it with
// every payload broadcast on its update event, and stops listening when it
// is disposed.
package detail

import (
	"reflect"
	"sync"

	"github.com/rs/zerolog"

	"blogd/internal/eventbus"
)

var logger = zerolog.Nop()

// SetLogger installs a structured logger used by view-models.
func SetLogger(l zerolog.Logger) { logger = l }

// View is the state shared by every detail view-model: one current entity
// and one subscription, released exactly once.
type View[T any] struct {
	event string

	mu       sync.RWMutex
	current  T
	disposed bool

	sub     eventbus.Subscription
	once    sync.Once
	changed chan struct{}
	done    chan struct{}
}

// NewView stores entity as the current state and subscribes to event on bus.
func NewView[T any](bus eventbus.Bus, event string, entity T) *View[T] {
	v := &View[T]{
		event:   event,
		current: entity,
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	v.sub = bus.Subscribe(event, v.apply)
	return v
}

// Current returns the entity the view is showing.
func (v *View[T]) Current() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// Event returns the name of the update event the view listens to.
func (v *View[T]) Event() string { return v.event }

// Changed is signalled after every accepted update. Signals coalesce: a
// reader that falls behind sees one pending signal and reads the latest
// entity with Current.
func (v *View[T]) Changed() <-chan struct{} { return v.changed }

// Done is closed when the view is disposed.
func (v *View[T]) Done() <-chan struct{} { return v.done }

// Dispose releases the subscription. Later calls do nothing.
func (v *View[T]) Dispose() {
	v.once.Do(func() {
		v.mu.Lock()
		v.disposed = true
		v.mu.Unlock()
		v.sub.Unsubscribe()
		close(v.done)
	})
}

func (v *View[T]) apply(e eventbus.Event) {
	next, ok := e.Payload.(T)
	if !ok || isNil(e.Payload) {
		logger.Debug().Str("event", e.Name).Str("payload_type", typeName(e.Payload)).Msg("ignoring update without entity")
		return
	}
	v.mu.Lock()
	if v.disposed {
		v.mu.Unlock()
		return
	}
	v.current = next
	v.mu.Unlock()

	select {
	case v.changed <- struct{}{}:
	default:
	}
}

func isNil(p any) bool {
	if p == nil {
		return true
	}
	rv := reflect.ValueOf(p)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func typeName(p any) string {
	if p == nil {
		return "nil"
	}
	return reflect.TypeOf(p).String()
}
