package eventbus

// Filter returns a Bus whose subscribers only see events accepted by keep.
// Publishing passes straight through to inner.
func Filter(inner Bus, keep func(Event) bool) Bus {
	return filtered{inner: inner, keep: keep}
}

type filtered struct {
	inner Bus
	keep  func(Event) bool
}

func (f filtered) Subscribe(name string, h Handler) Subscription {
	return f.inner.Subscribe(name, func(e Event) {
		if f.keep(e) {
			h(e)
		}
	})
}

func (f filtered) Publish(name string, payload any) { f.inner.Publish(name, payload) }
