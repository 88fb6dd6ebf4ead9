package eventbus

import "sync"

// Recorder wraps a Bus and keeps a copy of every published event.
type Recorder struct {
	Bus
	mu     sync.Mutex
	events []Event
}

// NewRecorder decorates inner. A nil inner gets a fresh Memory bus.
func NewRecorder(inner Bus) *Recorder {
	if inner == nil {
		inner = NewMemory()
	}
	return &Recorder{Bus: inner}
}

func (r *Recorder) Publish(name string, payload any) {
	r.mu.Lock()
	r.events = append(r.events, Event{Name: name, Payload: payload})
	r.mu.Unlock()
	r.Bus.Publish(name, payload)
}

// Events returns a copy of the recorded events in publish order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Names returns the names of the recorded events in publish order.
func (r *Recorder) Names() []string {
	evts := r.Events()
	out := make([]string, len(evts))
	for i, e := range evts {
		out[i] = e.Name
	}
	return out
}
