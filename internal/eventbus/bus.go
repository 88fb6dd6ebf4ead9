package eventbus

import (
	"github.com/rs/zerolog"
)

// Event is one broadcast on the bus.
type Event struct {
	Name    string
	Payload any
}

// Handler receives events for the name it subscribed to. Handlers run on the
// publisher's goroutine and should return quickly.
type Handler func(Event)

// Subscription is a live registration. Unsubscribe releases it; calling it
// more than once is a no-op.
type Subscription interface {
	Unsubscribe()
}

// Bus is the publish/subscribe contract used by views and services.
type Bus interface {
	Subscribe(name string, h Handler) Subscription
	Publish(name string, payload any)
}

// UpdateEvent returns the event name used to broadcast a saved entity,
// e.g. UpdateEvent("blogApp", "entry") == "blogApp:entryUpdate".
func UpdateEvent(namespace, entity string) string {
	return namespace + ":" + entity + "Update"
}

// DeleteEvent returns the event name used to broadcast a deleted entity id.
func DeleteEvent(namespace, entity string) string {
	return namespace + ":" + entity + "Delete"
}

var logger = zerolog.Nop()

// SetLogger installs a structured logger used by the bus.
func SetLogger(l zerolog.Logger) { logger = l }

// Namespace prefixes every event name blogd publishes.
const Namespace = "blogApp"

// Event names for the blog entities.
var (
	BlogUpdate  = UpdateEvent(Namespace, "blog")
	EntryUpdate = UpdateEvent(Namespace, "entry")
	TagUpdate   = UpdateEvent(Namespace, "tag")
	BlogDelete  = DeleteEvent(Namespace, "blog")
	EntryDelete = DeleteEvent(Namespace, "entry")
	TagDelete   = DeleteEvent(Namespace, "tag")
)
